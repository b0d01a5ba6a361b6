package domain

// KVStore is the durable key-value string store the persistence gateway
// writes to. Get reports ok=false for a missing key.
type KVStore interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}
