// Command streamd serves typed extraction over websocket. A client opens a
// connection, declares the expected shape, streams response chunks as they
// arrive from its model, and receives a partial-update notification for
// every snapshot change plus a final message on validate.
//
// Protocol (JSON text frames):
//
//	client → {"tag": "Person", "fields": "name:string,age:integer"}
//	client → {"chunk": "<Person>{\"name\": \"Al"}   (repeated)
//	client → {"done": true}
//	server → {"version": 3, "snapshot": {...}}   ("complete": true once the root tag closes)
//	server → {"final": {...}, "faults": [...]}  or  {"error": "..."}
package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"typestream"
	"typestream/internal/fieldspec"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type clientMsg struct {
	Tag    string `json:"tag,omitempty"`
	Fields string `json:"fields,omitempty"`
	Chunk  string `json:"chunk,omitempty"`
	Done   bool   `json:"done,omitempty"`
}

type serverMsg struct {
	Version  uint64             `json:"version,omitempty"`
	Snapshot any                `json:"snapshot,omitempty"`
	Complete bool               `json:"complete,omitempty"`
	Final    any                `json:"final,omitempty"`
	Faults   []faultMsg         `json:"faults,omitempty"`
	Error    string             `json:"error,omitempty"`
}

type faultMsg struct {
	Kind    string `json:"kind"`
	Offset  int    `json:"offset"`
	Message string `json:"message"`
}

func main() {
	addr := flag.String("addr", "", "listen address (default :8089 or STREAMD_ADDR)")
	flag.Parse()
	_ = godotenv.Load()
	if *addr == "" {
		*addr = os.Getenv("STREAMD_ADDR")
	}
	if *addr == "" {
		*addr = ":8089"
	}

	http.HandleFunc("/v1/stream", handleStream)
	log.Printf("streamd listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}

func handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("upgrade: %v", err)
		return
	}
	defer conn.Close()

	var p *typestream.Parser
	var version uint64

	for {
		var msg clientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch {
		case msg.Tag != "":
			desc, err := fieldspec.Parse(msg.Tag, msg.Fields)
			if err != nil {
				sendError(conn, err)
				return
			}
			if p, err = typestream.New(desc); err != nil {
				sendError(conn, err)
				return
			}
		case p == nil:
			sendError(conn, errNoSchema)
			return
		case msg.Done:
			final, err := p.Validate()
			if err != nil {
				sendError(conn, err)
				return
			}
			_ = conn.WriteJSON(serverMsg{Final: final, Faults: faults(p)})
			return
		default:
			snap, err := p.Feed([]byte(msg.Chunk))
			if err != nil {
				sendError(conn, err)
				return
			}
			// Suppress no-op notifications: a chunk that moved nothing
			// sends nothing back.
			if v := p.Version(); v != version && snap != nil {
				version = v
				_ = conn.WriteJSON(serverMsg{
					Version:  version,
					Snapshot: snap,
					Complete: p.IsComplete(),
				})
			}
		}
	}
}

var errNoSchema = jsonError("first message must declare tag and fields")

type jsonError string

func (e jsonError) Error() string { return string(e) }

func sendError(conn *websocket.Conn, err error) {
	_ = conn.WriteJSON(serverMsg{Error: err.Error()})
}

func faults(p *typestream.Parser) []faultMsg {
	var out []faultMsg
	for _, f := range p.Faults() {
		out = append(out, faultMsg{Kind: f.Kind.String(), Offset: f.Offset, Message: f.Message})
	}
	return out
}
