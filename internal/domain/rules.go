package domain

// Trigger is one AND-term of a bridge rule: the column must hold one of Values.
type Trigger struct {
	Column string   `json:"column" yaml:"column"`
	Values []string `json:"values" yaml:"values"`
}

// BridgeRule is a business rule explaining a reconciling item.
// Lower PriorityRank wins; equal ranks keep registration order.
type BridgeRule struct {
	Key                 string    `json:"key" yaml:"key"`
	Title               string    `json:"title" yaml:"title"`
	Triggers            []Trigger `json:"triggers" yaml:"triggers"`
	DrGLAccounts        []string  `json:"dr_gl_accounts" yaml:"dr_gl_accounts"`
	CrGLAccounts        []string  `json:"cr_gl_accounts" yaml:"cr_gl_accounts"`
	RequiredEnrichments []string  `json:"required_enrichments" yaml:"required_enrichments"`
	PriorityRank        int       `json:"priority_rank" yaml:"priority_rank"`
}

// ClassificationResult is what the generic classifier attaches to a row.
type ClassificationResult struct {
	BridgeKey           string `json:"bridge_key"`
	BridgeTitle         string `json:"bridge_title"`
	DrGLAccounts        string `json:"dr_gl_accounts"`
	CrGLAccounts        string `json:"cr_gl_accounts"`
	RequiredEnrichments string `json:"required_enrichments"`
	ReviewRequired      bool   `json:"review_required"`
}
