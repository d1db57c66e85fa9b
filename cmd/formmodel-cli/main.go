// Command formmodel-cli resolves a JSON value against declared model files
// and prints the resulting field descriptor tree.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/goliatone/go-formmodel/pkg/model"
	"github.com/goliatone/go-formmodel/pkg/modelfile"
	"github.com/goliatone/go-formmodel/pkg/registry"
	"github.com/goliatone/go-formmodel/pkg/resolver"
)

func main() {
	modelsDir := flag.String("models", "", "directory of JSON/YAML model declarations (optional)")
	valuePath := flag.String("value", "", "JSON file holding the value to resolve")
	modelName := flag.String("model", "", "declared model to resolve against (optional)")
	flag.Parse()

	if *valuePath == "" {
		log.Fatal("a -value file is required")
	}

	ctx := context.Background()
	reg := registry.New()

	if *modelsDir != "" {
		if err := modelfile.RegisterFS(os.DirFS(*modelsDir), reg); err != nil {
			log.Fatalf("load models: %v", err)
		}
	}

	raw, err := os.ReadFile(*valuePath)
	if err != nil {
		log.Fatalf("read value: %v", err)
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		log.Fatalf("parse value: %v", err)
	}

	res := resolver.New(reg)

	var tree *resolver.Descriptor
	if *modelName != "" {
		def, err := reg.Lookup(*modelName)
		if err != nil {
			log.Fatalf("lookup model: %v", err)
		}
		tree, err = res.ResolveAs(ctx, value, def)
		if err != nil {
			log.Fatalf("resolve: %v", err)
		}
	} else {
		tree, err = res.Resolve(ctx, value)
		if err != nil {
			log.Fatalf("resolve: %v", err)
		}
	}

	printTree(tree, 0)

	if errs := tree.Errs(); len(errs) > 0 {
		fmt.Fprintf(os.Stderr, "\n%d field(s) failed to resolve\n", len(errs))
		os.Exit(1)
	}
}

func printTree(d *resolver.Descriptor, depth int) {
	indent := strings.Repeat("  ", depth)
	label := d.Name
	if label == "" {
		label = "(root)"
	}

	switch d.Kind {
	case resolver.NodeScalar:
		if d.Err != nil {
			fmt.Printf("%s%s: %s = %v !! %v\n", indent, label, d.Scalar, d.Value, d.Err)
			return
		}
		fmt.Printf("%s%s: %s = %v\n", indent, label, d.Scalar, d.Value)
	case resolver.NodeNested:
		name := d.Model
		if d.Anonymous {
			name += " (synthesized)"
		}
		fmt.Printf("%s%s: %s\n", indent, label, name)
	case resolver.NodeList:
		elem := "unknown"
		if d.Elem != nil {
			elem = string(d.Elem.Kind)
			if d.Elem.Kind == model.FieldKindScalar {
				elem = string(d.Elem.Scalar)
			} else if d.Elem.Model != "" {
				elem = d.Elem.Model
			}
		}
		fmt.Printf("%s%s: list of %s [%d]\n", indent, label, elem, d.Len())
	case resolver.NodeMixed:
		fmt.Printf("%s%s: mixed collection [%d, fixed]\n", indent, label, d.Len())
	}

	for _, child := range d.Children {
		printTree(child, depth+1)
	}
}
