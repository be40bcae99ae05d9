package redlock

// The three scripted primitives the protocol issues against each backing
// server. Each key is the Coordinator's KeyPrefix (see WithKeyPrefix)
// followed by the caller's resource name, so the resource name alone is
// not the key unless the prefix is set to ""; no other Redis commands are
// issued on the lock path.

// lockScript sets resource=token with a PX expiry iff either the key is
// absent and fresh acquisitions are allowed (ARGV[3] == "yes"), or the key
// already holds this exact token (the extend case). Returns the SET reply
// on success, nil otherwise.
const lockScript = `
if (redis.call("exists", KEYS[1]) == 0 and ARGV[3] == "yes")
	or redis.call("get", KEYS[1]) == ARGV[1]
then
	return redis.call("set", KEYS[1], ARGV[1], "PX", ARGV[2])
else
	return nil
end
`

// unlockScript deletes the key only if it still holds this token.
// A late unlock from a process whose lock already lapsed and was
// re-acquired by another holder must not disturb the new owner.
const unlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// pttlScript returns {value, pttl} atomically so they cannot drift apart
// across two round trips.
const pttlScript = `
return {redis.call("get", KEYS[1]), redis.call("pttl", KEYS[1])}
`
