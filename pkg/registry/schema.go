// pkg/registry/schema.go
package registry

// Catalog describes the services the assistant can file and how their
// documents and fields are presented.
type Catalog struct {
	Version                  string         `json:"version"`
	LastUpdated              string         `json:"lastUpdated"`
	DefaultFormTitle         string         `json:"defaultFormTitle"`
	DefaultFormType          string         `json:"defaultFormType"`
	DefaultRequiredDocuments []string       `json:"defaultRequiredDocuments"`
	Forms                    []Form         `json:"forms"`
	Documents                []DocumentType `json:"documents"`
	Fields                   []Field        `json:"fields"`
	Groups                   []Group        `json:"groups"`
}

type Form struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Category          string   `json:"category"`
	RequiredDocuments []string `json:"requiredDocuments,omitempty"`
	Tags              []string `json:"tags,omitempty"`
}

// DocumentType is an uploadable document. MultiFile types accept one PDF or
// up to two photos (front and back); others accept exactly one file.
type DocumentType struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	MultiFile bool   `json:"multiFile"`
}

type Field struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	LongText bool   `json:"longText,omitempty"`
}

// Group is a titled section of the official form, in display order.
type Group struct {
	Title string   `json:"title"`
	Keys  []string `json:"keys"`
}
