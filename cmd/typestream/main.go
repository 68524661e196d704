// Command typestream extracts a typed value from a streamed LLM response.
// It either reads the stream from stdin or, with -prompt, drives a live
// Gemini model and parses the response as it arrives.
//
//	typestream -tag Person -fields 'name:string,age:integer,interests:[]string' < response.txt
//	typestream -tag Person -fields 'name:string,age:integer' -prompt "Describe a person named Alice"
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"

	"typestream"
	"typestream/internal/fieldspec"
	"typestream/internal/llm"
	"typestream/prompt"
)

func main() {
	tag := flag.String("tag", "", "root tag / class name")
	fields := flag.String("fields", "", "field spec, e.g. name:string,age:integer?")
	promptText := flag.String("prompt", "", "drive a live model with this prompt instead of reading stdin")
	model := flag.String("model", "", "Gemini model id (default from GEMINI_MODEL)")
	partials := flag.Bool("partials", false, "print every partial snapshot, not just the final value")
	flag.Parse()

	if *tag == "" || *fields == "" {
		log.Fatal("-tag and -fields are required")
	}
	desc, err := fieldspec.Parse(*tag, *fields)
	if err != nil {
		log.Fatal(err)
	}
	p, err := typestream.New(desc)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if *promptText != "" {
		_ = godotenv.Load()
		if os.Getenv("GEMINI_API_KEY") == "" && os.Getenv("GOOGLE_API_KEY") == "" {
			log.Fatal("GEMINI_API_KEY is not set")
		}
		cli, err := llm.NewGeminiClient(ctx, *model)
		if err != nil {
			log.Fatal(err)
		}
		defer cli.Close()
		full := *promptText + "\n\nRespond with exactly this format:\n" + prompt.FormatInstructions(desc)
		chunks, errc := cli.GenerateStream(ctx, full)
		for chunk := range chunks {
			feed(p, []byte(chunk), *partials)
		}
		if err := <-errc; err != nil {
			log.Fatal(err)
		}
	} else {
		buf := make([]byte, 4096)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				feed(p, buf[:n], *partials)
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				log.Fatal(err)
			}
		}
	}

	out, err := p.Validate()
	if err != nil {
		for _, f := range p.Faults() {
			log.Printf("fault: %s", f)
		}
		log.Fatal(err)
	}
	if n := len(p.Faults()); n > 0 {
		log.Printf("recovered from %d malformation(s)", n)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal(err)
	}
}

func feed(p *typestream.Parser, chunk []byte, partials bool) {
	snap, err := p.Feed(chunk)
	if err != nil {
		log.Fatal(err)
	}
	if partials && snap != nil {
		b, _ := json.Marshal(snap)
		fmt.Fprintf(os.Stderr, "partial: %s\n", b)
	}
}
