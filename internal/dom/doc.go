// Package dom is the host display tree: thin helpers over golang.org/x/net/html
// nodes for ids, classes, inline styles, component markers and the live
// properties of form controls.
package dom
