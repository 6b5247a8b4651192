package keypath

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrInvalidPath reports a key path that does not address a container of the
// required kind.
var ErrInvalidPath = errors.New("invalid key path")

// Clone returns a deep copy of a decoded JSON value. Scalars are returned as
// is.
func Clone(v any) any {
	switch value := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[k] = Clone(item)
		}
		return out
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = Clone(item)
		}
		return out
	default:
		return v
	}
}

// Set assigns value under key in the container at path.
func Set(root any, path []any, key, value any) (any, error) {
	return update(root, path, func(c any) (any, error) {
		switch container := c.(type) {
		case map[string]any:
			name, ok := key.(string)
			if !ok {
				return nil, fmt.Errorf("%w: map key %v is not a string", ErrInvalidPath, key)
			}
			container[name] = value
			return container, nil
		case []any:
			i, err := position(key, len(container))
			if err != nil {
				return nil, err
			}
			container[i] = value
			return container, nil
		default:
			return nil, fmt.Errorf("%w: cannot set %v on %T", ErrInvalidPath, key, c)
		}
	})
}

// Reset replaces the value at path. An empty path replaces the root.
func Reset(root any, path []any, value any) (any, error) {
	return update(root, path, func(any) (any, error) { return value, nil })
}

// Clear empties the container at path, keeping its kind.
func Clear(root any, path []any) (any, error) {
	return update(root, path, func(c any) (any, error) {
		switch c.(type) {
		case map[string]any:
			return map[string]any{}, nil
		case []any:
			return []any{}, nil
		default:
			return nil, fmt.Errorf("%w: cannot clear %T", ErrInvalidPath, c)
		}
	})
}

// Insert places value at index in the list at path. A negative index counts
// from the end and is clamped to the front; an index past the end appends.
func Insert(root any, path []any, index, value any) (any, error) {
	return update(root, path, func(c any) (any, error) {
		list, ok := c.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: cannot insert into %T", ErrInvalidPath, c)
		}
		i, ok := toInt(index)
		if !ok {
			return nil, fmt.Errorf("%w: insert index %v", ErrInvalidPath, index)
		}
		if i < 0 {
			i = max(len(list)+i, 0)
		}
		i = min(i, len(list))
		return slices.Insert(list, i, value), nil
	})
}

// Remove deletes a map key or a list position in the container at path.
func Remove(root any, path []any, keyOrIndex any) (any, error) {
	return update(root, path, func(c any) (any, error) {
		switch container := c.(type) {
		case map[string]any:
			name, ok := keyOrIndex.(string)
			if !ok {
				return nil, fmt.Errorf("%w: map key %v is not a string", ErrInvalidPath, keyOrIndex)
			}
			delete(container, name)
			return container, nil
		case []any:
			i, err := position(keyOrIndex, len(container))
			if err != nil {
				return nil, err
			}
			return slices.Delete(container, i, i+1), nil
		default:
			return nil, fmt.Errorf("%w: cannot remove from %T", ErrInvalidPath, c)
		}
	})
}

// update walks path from node and replaces the addressed value with fn's
// result, rebuilding the parents on the way back.
func update(node any, path []any, fn func(any) (any, error)) (any, error) {
	if len(path) == 0 {
		return fn(node)
	}
	head, rest := path[0], path[1:]

	switch container := node.(type) {
	case map[string]any:
		name, ok := head.(string)
		if !ok {
			return nil, fmt.Errorf("%w: map key %v is not a string", ErrInvalidPath, head)
		}
		child, ok := container[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing key %q", ErrInvalidPath, name)
		}
		next, err := update(child, rest, fn)
		if err != nil {
			return nil, err
		}
		container[name] = next
		return container, nil
	case []any:
		i, err := position(head, len(container))
		if err != nil {
			return nil, err
		}
		next, err := update(container[i], rest, fn)
		if err != nil {
			return nil, err
		}
		container[i] = next
		return container, nil
	default:
		return nil, fmt.Errorf("%w: cannot descend into %T at %v", ErrInvalidPath, node, head)
	}
}

// position resolves a list index; negative indexes count from the end.
func position(key any, length int) (int, error) {
	i, ok := toInt(key)
	if ok && i < 0 {
		i += length
	}
	if !ok || i < 0 || i >= length {
		return 0, fmt.Errorf("%w: index %v out of range [0,%d)", ErrInvalidPath, key, length)
	}
	return i, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
