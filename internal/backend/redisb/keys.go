package redisb

const (
	// keyPrefix namespaces every bookshelf key.
	keyPrefix = "bookshelf:owner:"
)

// itemKey returns the Redis key holding one item's JSON document.
func itemKey(ownerID, id string) string {
	return keyPrefix + ownerID + ":item:" + id
}

// allItemsKey returns the key of the set holding all item IDs of an
// owner's collection.
func allItemsKey(ownerID string) string {
	return keyPrefix + ownerID + ":items"
}
