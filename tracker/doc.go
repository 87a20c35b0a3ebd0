/*
Package tracker implements the data-association core of a multi-object
tracker.

Given a stream of sensor frames and per-frame object detections, the
Manager decides each cycle which detections correspond to which tracked
objects, spawns new tracks for unmatched detections, advances existing
tracks through their single-object trackers, and retires tracks whose
tracker reports them gone.

Association is statistical rather than greedy: for every live track and
incoming detection the Associator computes the Mahalanobis distance
between the track's predicted centroid and the detection centroid under
the track's own covariance, rejects implausible pairs by gating, and the
remaining costs are solved as a minimum-cost bipartite assignment with
the Kuhn-Munkres algorithm so the matching is globally optimal.

The package performs no object detection and no image processing itself;
single-object trackers are plugged in through the SingleTracker interface
(see the cvtrack package for OpenCV-backed implementations).
*/
package tracker
