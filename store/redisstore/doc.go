// Package redisstore implements account.Store on Redis.
//
// Each account is a hash under <prefix>:id:<id>. Two string keys index it:
// <prefix>:email:<email> for the primary address and
// <prefix>:pending:<email> for a pending new address. Create and Update run
// as Lua scripts, so index maintenance and Patch preconditions are atomic
// with the write.
package redisstore
