package mcpserver

// Tool descriptions carry interpretation guidance for LLMs.

func describeSuperclassOpportunities() string {
	return `Finds methods that are near-duplicates across different classes and proposes extracting them into a common superclass.

USE WHEN:
- Looking for copy-pasted methods between sibling classes
- Planning an extract-superclass refactoring
- Reviewing a revision for newly duplicated behaviour (pass ref)

INTERPRETING RESULTS:
- An opportunity is a pair of methods in two classes with equal return type and parameters, similar names and near-identical bodies
- name_similarity and body_similarity are Dice coefficients over character shingles (0.0-1.0)
- body_similarity >= 0.95: effectively identical, safe to hoist as-is
- body_similarity 0.85-0.95: small divergence, hoist and parameterize the difference
- A group collects every class sharing one method; its representative is the method to move into the superclass
- cluster_mode first_seen keeps groups small and disjoint by representative; connected merges chains of similar methods

METRICS RETURNED:
- opportunities: method pairs with name_similarity, body_similarity and body_window
- groups: representative and participants (class, file, method, signature, lines)
- suggestions: superclass and subclass skeleton sources per group (when generate is true)
- summary: files and classes analyzed, classes and methods involved, largest group, avg/p50/p95/min body similarity`
}
