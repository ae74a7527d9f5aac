// Package meshsync implements the gateway's peer-to-peer BBS synchronization
// protocol: a symmetric gossip scheme in which every node runs the same state
// machine and any two nodes may simultaneously act as requester and responder
// to each other.
//
// Nodes find each other with broadcast discovery/announce messages, then
// exchange bulletins and channel directory entries pairwise over the mesh via
// request/response/ack triples. The transport below is fire-and-forget; all
// reliability lives in this package's explicit acknowledgments and in the
// next scheduled sync round. Conflicting writes resolve newest-timestamp-wins,
// duplicates are suppressed by content fingerprints, and nothing received
// from the mesh is ever allowed to crash the node.
package meshsync
