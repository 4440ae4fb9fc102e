package badger

import (
	"encoding/binary"
	"strconv"
)

// Key prefixes for different data types
const (
	checkpointPrefix = "ckpt:"
	documentPrefix   = "doc:"
	sequencePrefix   = "seq:"
)

// makeCheckpointKey generates a key for an operation's checkpoint.
func makeCheckpointKey(operation string) []byte {
	return []byte(checkpointPrefix + operation)
}

// makeCollectionPrefix returns the prefix shared by a collection's documents.
// The name is length-prefixed so no collection's prefix is a prefix of
// another's ("a" vs "a:b").
// Format: doc:len:collection:
func makeCollectionPrefix(collection string) []byte {
	return []byte(documentPrefix + strconv.Itoa(len(collection)) + ":" + collection + ":")
}

// makeDocumentKey generates a key for a document by sequence id.
// Format: doc:len:collection:id
func makeDocumentKey(collection string, id uint64) []byte {
	prefix := makeCollectionPrefix(collection)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort follows insertion order
	binary.BigEndian.PutUint64(buf[offset:], id)
	return buf
}

func makeSequenceKey(collection string) string {
	return sequencePrefix + collection
}
