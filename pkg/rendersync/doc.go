// Package rendersync tells the rendering engine which nodes need their edge
// paths recomputed.
//
// Anchor geometry changes must reach the renderer only after every layout
// mutation of the current frame has been applied; reading geometry earlier
// would paint edges against stale anchor positions. The [Bridge] therefore
// splits notification into two phases:
//
//  1. [Bridge.Mark] collects node ids as mutations happen (pure bookkeeping).
//  2. [Bridge.Flush] is called by the host once per frame, after layout has
//     settled, and hands the batch to the registered [SyncFunc].
//
// A bridge has a single callback slot. Hosts that need several consumers
// combine them with [Fanout]. Without a registered callback, Flush still
// drains the pending batch so nothing leaks into the next frame.
//
// # Transports
//
// [RedisPublisher] forwards batches over Redis pub/sub to a renderer running
// in another process.
package rendersync
