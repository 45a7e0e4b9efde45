// Package geometry holds the planar operations the search pipeline needs on
// top of orb: line subdivision, disk and corridor construction, polygon
// clipping, buffering and point-to-boundary distance.
//
// All coordinates are treated as planar. Polygon outputs follow the orb
// convention of closed rings with the outer ring first.
package geometry
