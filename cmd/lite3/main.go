package main

import (
	"fmt"
	"log"
	"os"

	"github.com/fastserial/lite3/pkg/context"
	"github.com/fastserial/lite3/pkg/jsoncodec"
	"github.com/fastserial/lite3/pkg/lite3"
)

func main() {
	// Initialize a growable document rooted in an object
	cfg := lite3.DefaultConfig
	ctx, err := context.New(cfg, lite3.TagObject, 0, 0)
	if err != nil {
		log.Fatalf("Failed to create document: %v", err)
	}

	// Insert some key-value pairs
	fruitColors := map[string]string{
		"apple":  "red",
		"banana": "yellow",
		"grape":  "purple",
		"orange": "orange",
		"cherry": "red",
	}

	fmt.Println("Inserting key-value pairs...")
	for key, value := range fruitColors {
		if err := ctx.SetString(ctx.Root(), key, value); err != nil {
			log.Printf("Failed to insert %s: %v", key, err)
		}
	}

	basket, err := ctx.SetArray(ctx.Root(), "basket")
	if err != nil {
		log.Fatalf("Failed to create basket array: %v", err)
	}
	for _, fruit := range []string{"apple", "banana", "mango"} {
		if _, err := ctx.ArrAppendString(basket, fruit); err != nil {
			log.Printf("Failed to append %s: %v", fruit, err)
		}
	}

	// Traverse the document and print all key-value pairs
	fmt.Println("\nDocument Contents:")
	it := ctx.Iterate(ctx.Root())
	for {
		key, valOfs, ok, err := it.NextObjectEntry(ctx.Bytes())
		if err != nil {
			log.Fatalf("Iteration failed: %v", err)
		}
		if !ok {
			break
		}
		switch lite3.Tag(ctx.Bytes()[valOfs]) {
		case lite3.TagString:
			v, _ := lite3.DecodeStringAt(ctx.Bytes(), valOfs)
			fmt.Printf("%s -> %s\n", key, v)
		case lite3.TagArray:
			fmt.Printf("%s -> [array of %d elements]\n", key, lite3.Count(ctx.Bytes(), cfg, valOfs))
		}
	}

	// Test lookups
	searchKeys := []string{"apple", "banana", "mango"}
	fmt.Println("\nSearch Results:")
	for _, key := range searchKeys {
		if value, err := ctx.GetString(ctx.Root(), key); err == nil {
			fmt.Printf("Found: %s -> %s\n", key, value)
		} else {
			fmt.Printf("Not Found: %s\n", key)
		}
	}

	// Render the whole document as JSON
	out, err := jsoncodec.EncodeBuffer(ctx.Doc())
	if err != nil {
		log.Fatalf("Failed to encode document: %v", err)
	}
	fmt.Println("\nJSON:")
	fmt.Fprintln(os.Stdout, string(out))
}
