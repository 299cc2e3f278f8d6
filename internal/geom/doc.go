// Package geom provides the planar primitives shared by the road, the
// vehicles and the sensors.
//
//   - [Point] and [Polygon]: plain value types in world coordinates
//     (y grows downwards, heading 0 points towards negative y)
//   - [OrientedRect]: the 4-corner footprint of a rotated rectangle
//   - [SegmentIntersection]: parametric intersection used for ray casting
//   - [PolygonsIntersect]: edge-crossing test under a [ContactPolicy]
//   - [Lerp]: linear interpolation
//
// # Contact policy
//
// The default [EndpointContact] counts edges that cross and non-parallel
// edges where one endpoint lies on the other, so two same-width rectangles
// sliding along the same lines still meet. [ProperCrossing] only counts
// interior crossings. [InclusiveContact] adds collinear overlap.
// Neither policy detects a polygon lying strictly inside another; use
// [PolygonsOverlap] when containment must count.
package geom
