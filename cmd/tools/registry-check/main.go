// cmd/tools/registry-check/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"formassist/pkg/registry"
)

var registryPath string

func main() {
	initCmd := flag.NewFlagSet("init", flag.ExitOnError)
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	for _, fs := range []*flag.FlagSet{initCmd, addCmd, updateCmd, validateCmd} {
		fs.StringVar(&registryPath, "path", "configs/catalog.json", "Path to catalog file")
	}

	// Add command flags
	idAdd := addCmd.String("id", "", "Form ID (e.g., income_certificate)")
	title := addCmd.String("title", "", "Title (e.g., Income Certificate)")
	description := addCmd.String("description", "", "Description")
	category := addCmd.String("category", "certificate", "Category (certificate, identity)")
	documents := addCmd.String("documents", "", "Comma separated required document types (e.g., aadhaar,pan)")

	// Update command flags
	idUpdate := updateCmd.String("id", "", "Form ID to update")
	field := updateCmd.String("field", "", "Field to update (title, description, category, documents)")
	value := updateCmd.String("value", "", "New value for the field")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		initCmd.Parse(os.Args[2:])
		if _, err := os.Stat(registryPath); err == nil {
			fmt.Printf("Error: %s already exists\n", registryPath)
			os.Exit(1)
		}
		cat := registry.Default()
		cat.LastUpdated = time.Now().Format(time.RFC3339)
		if err := saveCatalog(cat, registryPath); err != nil {
			fmt.Printf("Error writing catalog: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote built-in catalog to %s\n", registryPath)

	case "add":
		addCmd.Parse(os.Args[2:])
		if *idAdd == "" || *title == "" {
			fmt.Println("Error: id and title are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		form := registry.Form{
			ID:                *idAdd,
			Title:             *title,
			Description:       *description,
			Category:          *category,
			RequiredDocuments: splitList(*documents),
		}
		if err := addForm(form); err != nil {
			fmt.Printf("Error adding form: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added form: %s\n", *idAdd)

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *idUpdate == "" || *field == "" {
			fmt.Println("Error: id and field are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		if err := updateForm(*idUpdate, *field, *value); err != nil {
			fmt.Printf("Error updating form: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated form %s, field %s to %q\n", *idUpdate, *field, *value)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateCatalog(); err != nil {
			fmt.Printf("Catalog validation failed: %v\n", err)
			os.Exit(1)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

func addForm(form registry.Form) error {
	cat, err := registry.LoadRegistry(registryPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		cat = registry.Default()
	}

	if _, exists := cat.Form(form.ID); exists {
		return fmt.Errorf("form with ID %s already exists", form.ID)
	}
	if err := checkDocuments(cat, form); err != nil {
		return err
	}

	cat.Forms = append(cat.Forms, form)
	cat.LastUpdated = time.Now().Format(time.RFC3339)
	return saveCatalog(cat, registryPath)
}

func updateForm(id, field, value string) error {
	cat, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	idx := -1
	for i := range cat.Forms {
		if cat.Forms[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("form with ID %s not found", id)
	}

	form := &cat.Forms[idx]
	switch field {
	case "title":
		if value == "" {
			return fmt.Errorf("title cannot be empty")
		}
		form.Title = value
	case "description":
		form.Description = value
	case "category":
		form.Category = value
	case "documents":
		form.RequiredDocuments = splitList(value)
		if err := checkDocuments(cat, *form); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	cat.LastUpdated = time.Now().Format(time.RFC3339)
	return saveCatalog(cat, registryPath)
}

func validateCatalog() error {
	cat, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return err
	}
	for _, f := range cat.Forms {
		if err := checkDocuments(cat, f); err != nil {
			return err
		}
	}
	for _, d := range cat.DefaultRequiredDocuments {
		if _, ok := cat.Document(d); !ok {
			return fmt.Errorf("default required documents reference unknown document %s", d)
		}
	}

	fmt.Printf("Catalog validation passed. Found %d forms, %d documents, %d fields.\n",
		len(cat.Forms), len(cat.Documents), len(cat.Fields))
	return nil
}

// checkDocuments rejects forms that require undeclared document types.
func checkDocuments(cat *registry.Catalog, form registry.Form) error {
	for _, d := range form.RequiredDocuments {
		if _, ok := cat.Document(d); !ok {
			return fmt.Errorf("form %s requires unknown document %s", form.ID, d)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// saveCatalog handles saving the catalog to file
func saveCatalog(cat *registry.Catalog, path string) error {
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	return nil
}

func help() {
	fmt.Println(`
Usage: registry-check <command> [flags]

Commands:
  init      Write the built-in catalog to a file for editing
  add       Add a new form to the catalog
  update    Update an existing form's field
  validate  Validate the catalog file
  help      Show this help message

Examples:
  registry-check init -path configs/catalog.json
  registry-check add -id ration_card -title "Ration Card" -documents aadhaar
  registry-check update -id ration_card -field documents -value aadhaar,pan
  registry-check validate -path configs/catalog.json

Use 'registry-check <command> -h' for more information about a command.`)
}
