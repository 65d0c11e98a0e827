// Package glossary maps canonical status and priority category keys to the
// words people actually type.
//
// A Glossary is built once per session and never mutated. Each Category has
// a stable Key (the value stored on tasks), a display name, query aliases in
// any configured language, raw markers (checkbox symbols such as "x" or "/",
// priority emoji such as "⏫"), a relevance weight in [0,1] and an optional
// explicit sort position.
//
// Validate reports every broken invariant at once. Repair never runs
// implicitly; it returns a new Glossary together with a RepairReport listing
// each rewritten field:
//
//	g, err := glossary.Load("glossary.yaml")
//	if err := g.Validate(); err != nil {
//	    fixed, report, err := g.Repair()
//	    ...
//	}
package glossary
