package main

import (
	"fmt"
	"log"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"

	bonsai "github.com/cchudant/bonsai-trie"
	"github.com/cchudant/bonsai-trie/database"
	wrappedLevelDB "github.com/cchudant/bonsai-trie/database/leveldb"
	"github.com/cchudant/bonsai-trie/database/memory"
	wrappedRedis "github.com/cchudant/bonsai-trie/database/redis"
)

func main() {
	runJournal("memory", memory.NewMemoryDB())

	ldb, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		log.Fatal(err)
	}
	runJournal("leveldb", wrappedLevelDB.NewFromExistLevelDB(ldb))

	mr, err := miniredis.Run()
	if err != nil {
		log.Fatal(err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	runJournal("redis", wrappedRedis.NewFromExistRedisClient(client))
}

func runJournal(name string, db database.JournalDB) {
	defer db.Close()

	journal, err := bonsai.NewJournalStore(db, bonsai.DecodeBasicId)
	if err != nil {
		log.Fatal(err)
	}
	builder := bonsai.NewBasicIdBuilder()

	contractKey := bonsai.NewTrieKey(bonsai.TrieKeyTypeFlat, []byte{0xde, 0xad, 0xbe, 0xef})
	nodeKey := bonsai.NewTrieKey(bonsai.TrieKeyTypeTrie, []byte{0x01, 0x02})

	// First version: both keys created.
	journal.Insert(contractKey, bonsai.Change{NewValue: []byte("balance=100")})
	journal.Insert(nodeKey, bonsai.Change{NewValue: []byte("hash-0")})
	first := builder.NewId()
	if err := journal.Commit(first); err != nil {
		log.Fatal(err)
	}

	// Second version: several writes to one key collapse into one pair.
	journal.Insert(contractKey, bonsai.Change{OldValue: []byte("balance=100"), NewValue: []byte("balance=80")})
	journal.Insert(contractKey, bonsai.Change{OldValue: []byte("balance=80"), NewValue: []byte("balance=75")})
	second := builder.NewId()
	if err := journal.Commit(second); err != nil {
		log.Fatal(err)
	}

	batch, err := journal.ChangesAt(second)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("[%s] version %v holds %d changed key(s)\n", name, second, batch.Len())
	for key, change := range batch.Changes {
		fmt.Printf("[%s]   key %x: %q -> %q\n", name, key.Bytes(), change.OldValue, change.NewValue)
	}

	id, popped, err := journal.PopCommit()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("[%s] popped version %v with %d change(s), %d version(s) left\n",
		name, id, popped.Len(), len(journal.Store().IDQueue))
}
