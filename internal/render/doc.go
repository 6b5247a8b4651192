// Package render is the reconciliation engine of a window.
//
// Engine materialises node specs into the window's document, keeps a cache
// from server assigned node ids to live nodes, and applies patch batches to
// ids, classes, styles, attributes, children and component data. After
// every change to children the cache is swept: entries whose node is no
// longer reachable from the root are dropped and their components are
// destroyed, so a later patch never sees a stale id.
//
// Component ranges, the legacy way of binding a component to a run of
// siblings, are rendered as a pair of marker comments. Child indexes count a
// whole range as one child, and a range can itself be the target of a
// children patch.
package render
