package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"chat-hub/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "/tmp/chat-hub", "Path to badger DB")
	// By default scan everything except the secondary indexes
	prefix := flag.String("prefix", "", "Prefix to scan (user:, chan:, msg:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "ID", "Name", "Alive", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	counts := map[string]int{}

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			rawKey := string(item.Key())

			// Skip the secondary indexes, they only hold pointers
			if strings.HasPrefix(rawKey, "uname:") || strings.HasPrefix(rawKey, "msgref:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				row, kind := describe(rawKey, v)
				if row == nil {
					fmt.Printf("Error decoding key %s\n", rawKey)
					return nil
				}
				counts[kind]++
				table.Append(row)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	header := fmt.Sprintf(" %s ", *dbPath)
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(header))
	table.Render()
	fmt.Printf("\n%d users, %d channels, %d messages\n",
		counts["USER"], counts["CHANNEL"], counts["MESSAGE"])
}

// describe decodes one record into a display row based on its key prefix.
func describe(rawKey string, v []byte) ([]string, string) {
	switch {
	case strings.HasPrefix(rawKey, "user:"):
		var u domain.User
		if err := json.Unmarshal(v, &u); err != nil {
			return nil, ""
		}
		detail := fmt.Sprintf("%d channels", len(u.Channels))
		return []string{rawKey, "USER", shortID(u.ID), u.Username, alive(u.Alive), detail}, "USER"

	case strings.HasPrefix(rawKey, "chan:"):
		var c domain.Channel
		if err := json.Unmarshal(v, &c); err != nil {
			return nil, ""
		}
		detail := fmt.Sprintf("%d members, owner %s", len(c.Members), shortID(c.Owner))
		return []string{rawKey, "CHANNEL", shortID(c.ID), c.Name, alive(c.Alive), detail}, "CHANNEL"

	case strings.HasPrefix(rawKey, "msg:"):
		var m domain.Message
		if err := json.Unmarshal(v, &m); err != nil {
			return nil, ""
		}
		text := m.Text
		if len(text) > 40 {
			text = text[:40] + "..."
		}
		detail := fmt.Sprintf("%s %s", m.At.Format("15:04:05"), text)
		return []string{rawKey, "MESSAGE", shortID(m.ID.String()), shortID(m.Author), alive(m.Alive), detail}, "MESSAGE"
	}
	return nil, ""
}

// shortID keeps the first 8 characters of an ID for readability.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func alive(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	db, err := badger.Open(opts)
	if err != nil {
		// If a crash left the value log dirty, a write open truncates it
		if strings.Contains(err.Error(), "Log truncate required") {
			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}

			db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}
