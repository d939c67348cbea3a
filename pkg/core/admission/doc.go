// Package admission implements the transaction admission processor of the
// mempool subsystem: deduplication, pre-worker filtering, cryptographic
// verification dispatch, and the post-verification pipeline that admits
// transactions into the pool and schedules them for broadcast.
package admission
