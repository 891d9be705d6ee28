package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"time"
)

// Tails the live ingest event stream and renders it one line per event:
// cycle summaries as their counters, clip events as identity plus title.
// With -raw the JSON lines are passed through untouched.

// event is the union of every stream payload; unused fields stay zero.
type event struct {
	Type       string `json:"type"`
	ClipID     int64  `json:"clip_id"`
	ExternalID string `json:"external_id"`
	Platform   string `json:"platform"`
	Source     string `json:"source"`
	Title      string `json:"title"`
	Sources    int    `json:"sources"`
	Fetched    int    `json:"fetched"`
	Inserted   int    `json:"inserted"`
	Replaced   int    `json:"replaced"`
	Skipped    int    `json:"skipped"`
	Rejected   int    `json:"rejected"`
	Failed     int    `json:"failed"`
	Took       string `json:"took"`
	TCPClients int    `json:"tcp_clients"`
	WSClients  int    `json:"ws_clients"`
}

func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "live event server address")
	raw := flag.Bool("raw", false, "print the raw JSON lines instead of rendering")
	flag.Parse()

	for {
		if err := tail(*addr, *raw); err != nil {
			log.Printf("[live-client] disconnected: %v", err)
		}
		time.Sleep(1 * time.Second) // auto reconnect
	}
}

func tail(addr string, raw bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[live-client] connected to %s", addr)

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		if raw {
			fmt.Println(sc.Text())
			continue
		}
		fmt.Println(render(sc.Bytes()))
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}

func render(line []byte) string {
	var ev event
	if err := json.Unmarshal(line, &ev); err != nil || ev.Type == "" {
		return string(line)
	}

	switch ev.Type {
	case "hello":
		return fmt.Sprintf("connected (%d tcp, %d ws observers)", ev.TCPClients, ev.WSClients)
	case "cycle.done", "cycle_summary":
		return fmt.Sprintf("cycle: %d sources, %d fetched, +%d inserted, ~%d replaced, %d skipped, %d rejected, %d failed (%s)",
			ev.Sources, ev.Fetched, ev.Inserted, ev.Replaced, ev.Skipped, ev.Rejected, ev.Failed, ev.Took)
	case "clip.new", "clip.replaced":
		return fmt.Sprintf("%-13s #%d %s/%s %q", ev.Type, ev.ClipID, ev.Platform, ev.Source, truncate(ev.Title, 60))
	case "clip.unsafe", "clip.blacklisted", "clip.removed":
		return fmt.Sprintf("%-13s #%d", ev.Type, ev.ClipID)
	default:
		return string(line)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
