//go:build ignore

// gen-docs writes docs/job-reference.md from the ExtractJob types in apis/v1.
package main

import (
	"fmt"
	"go/ast"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"golang.org/x/tools/go/packages"
)

// Sections of the reference, in output order.
var sections = []string{
	"ExtractJob",
	"Metadata",
	"ExtractJobSpec",
	"Source",
	"ExtractOptions",
	"S3Config",
	"HTTPConfig",
}

type field struct {
	key         string
	typeName    string
	ref         string
	required    bool
	template    bool
	rules       []string
	description string
}

type section struct {
	name   string
	doc    string
	fields []field
}

func main() {
	root, err := findProjectRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding project root: %v\n", err)
		os.Exit(1)
	}

	pkgs, err := packages.Load(&packages.Config{
		Mode: packages.NeedSyntax | packages.NeedFiles | packages.NeedName,
		Dir:  root,
	}, "./apis/v1")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading package: %v\n", err)
		os.Exit(1)
	}
	if packages.PrintErrors(pkgs) > 0 {
		os.Exit(1)
	}

	structs := make(map[string]section)
	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			collectStructs(file, structs)
		}
	}

	var sb strings.Builder
	sb.WriteString("# Job file reference\n\n")
	sb.WriteString("Generated by `go generate ./apis/v1`. Do not edit.\n")
	sb.WriteString("Fields marked *template* accept `${VAR}` references.\n")

	for _, name := range sections {
		s, ok := structs[name]
		if !ok {
			fmt.Fprintf(os.Stderr, "Warning: struct %s not found\n", name)
			continue
		}
		writeSection(&sb, s)
	}

	outputPath := filepath.Join(root, "docs", "job-reference.md")
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(outputPath, []byte(sb.String()), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outputPath, err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s\n", outputPath)
}

func collectStructs(file *ast.File, structs map[string]section) {
	for _, decl := range file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE {
			continue
		}

		for _, spec := range genDecl.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			structType, ok := typeSpec.Type.(*ast.StructType)
			if !ok {
				continue
			}

			doc := typeSpec.Doc
			if doc == nil && len(genDecl.Specs) == 1 {
				doc = genDecl.Doc
			}

			s := section{name: typeSpec.Name.Name, doc: docText(doc)}
			for _, f := range structType.Fields.List {
				if len(f.Names) == 0 || !ast.IsExported(f.Names[0].Name) {
					continue
				}
				s.fields = append(s.fields, parseField(f))
			}
			structs[s.name] = s
		}
	}
}

func parseField(f *ast.Field) field {
	out := field{key: f.Names[0].Name}
	out.typeName, out.ref = typeName(f.Type)

	doc := f.Doc
	if doc == nil {
		doc = f.Comment
	}
	out.description = strings.ReplaceAll(docText(doc), "\n", " ")

	if f.Tag == nil {
		return out
	}

	tag := reflect.StructTag(strings.Trim(f.Tag.Value, "`"))
	if key, _, _ := strings.Cut(tag.Get("yaml"), ","); key != "" {
		out.key = key
	}
	_, out.template = tag.Lookup("template")

	for _, rule := range strings.Split(tag.Get("validate"), ",") {
		switch {
		case rule == "required":
			out.required = true
		case rule == "", rule == "omitempty", rule == "dive":
		default:
			out.rules = append(out.rules, rule)
		}
	}
	return out
}

// typeName renders a field type and, for struct types of this package, the
// section it links to.
func typeName(expr ast.Expr) (string, string) {
	switch t := expr.(type) {
	case *ast.Ident:
		if ast.IsExported(t.Name) {
			return t.Name, t.Name
		}
		return t.Name, ""
	case *ast.StarExpr:
		return typeName(t.X)
	case *ast.ArrayType:
		inner, ref := typeName(t.Elt)
		return "[]" + inner, ref
	case *ast.MapType:
		key, _ := typeName(t.Key)
		val, _ := typeName(t.Value)
		return fmt.Sprintf("map[%s]%s", key, val), ""
	case *ast.SelectorExpr:
		return t.Sel.Name, ""
	default:
		return "unknown", ""
	}
}

func writeSection(sb *strings.Builder, s section) {
	fmt.Fprintf(sb, "\n## %s\n\n", s.name)
	if s.doc != "" {
		sb.WriteString(s.doc + "\n\n")
	}

	sb.WriteString("| Field | Type | Required | Notes |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, f := range s.fields {
		typ := "`" + f.typeName + "`"
		if f.ref != "" {
			typ = fmt.Sprintf("[`%s`](#%s)", f.typeName, strings.ToLower(f.ref))
		}

		var notes []string
		if f.template {
			notes = append(notes, "*template*")
		}
		for _, rule := range f.rules {
			notes = append(notes, "`"+rule+"`")
		}
		if f.description != "" {
			notes = append(notes, f.description)
		}

		required := ""
		if f.required {
			required = "yes"
		}

		fmt.Fprintf(sb, "| `%s` | %s | %s | %s |\n", f.key, typ, required, strings.Join(notes, " "))
	}
}

func docText(doc *ast.CommentGroup) string {
	if doc == nil {
		return ""
	}
	lines := strings.Split(strings.TrimSpace(doc.Text()), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}

func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
