package main

import (
	"fmt"
	"log"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/wildscribe/site-search/internal/bootstrap"
	"github.com/wildscribe/site-search/internal/indexing"
	"github.com/wildscribe/site-search/internal/session"
)

func main() {
	if len(os.Args) < 3 || len(os.Args) > 4 {
		fmt.Fprintf(os.Stderr, "Usage: %s <search-index.json> <session-file> [context-path]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s site/search-index.json ~/.cache/wildscribe/session.db /docs/v2\n", os.Args[0])
		os.Exit(1)
	}

	indexFile := os.Args[1]
	sessionFile := os.Args[2]
	contextPath := ""
	if len(os.Args) == 4 {
		contextPath = os.Args[3]
	}

	log.Printf("Wildscribe Session Indexer (snapshot v%d)", indexing.SnapshotVersion)
	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	// Step 1: Parse and validate the index document
	log.Printf("Parsing search index: %s", indexFile)
	f, err := os.Open(indexFile)
	if err != nil {
		log.Fatalf("Failed to open search index: %v", err)
	}
	items, err := indexing.ParseItems(f)
	f.Close()
	if err != nil {
		log.Fatalf("Failed to parse search index: %v", err)
	}
	log.Printf("✓ Parsed %d items", len(items))

	// Step 2: Open the session
	sess, err := session.NewBolt(sessionFile)
	if err != nil {
		log.Fatalf("Failed to open session: %v", err)
	}
	defer sess.Close()

	if err := sess.ForgetIndex(); err != nil {
		log.Fatalf("Failed to reset session: %v", err)
	}

	// Step 3: Cache items and the serialized index
	bar := progressbar.NewOptions(len(items),
		progressbar.OptionSetDescription("Indexing items"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	index, err := bootstrap.Populate(sess, nil, bootstrap.DefaultFields(), items, func(done, total int) {
		_ = bar.Set(done)
	})
	_ = bar.Finish()
	if err != nil {
		log.Fatalf("Failed to build index: %v", err)
	}
	count, _ := index.DocCount()
	index.Close()
	log.Printf("✓ Indexed %d items successfully", count)

	// Step 4: Pin the context path so clients skip resolution
	if contextPath != "" {
		if err := sess.SetContextPath(contextPath); err != nil {
			log.Printf("Warning: Failed to write context path: %v", err)
		} else {
			log.Printf("✓ Context path: %s", contextPath)
		}
	} else {
		log.Printf("Context path not pinned, it is resolved on first use")
	}

	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Printf("✓ Session ready!")
	log.Printf("")
	log.Printf("Session details:")
	log.Printf("  Location:     %s", sessionFile)
	log.Printf("  Total items:  %d", count)
	log.Printf("  Snapshot:     v%d", indexing.SnapshotVersion)
}
