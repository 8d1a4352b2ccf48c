package models

// Occurrence is a method together with the class it was found in.
type Occurrence struct {
	Class  *ClassUnit
	Method *MethodSignature
}

// Ref returns the plain, serializable form of the occurrence.
func (o Occurrence) Ref() MethodRef {
	ref := MethodRef{}
	if o.Class != nil {
		ref.Class = o.Class.Name
		ref.File = o.Class.Path
	}
	if o.Method != nil {
		ref.Method = o.Method.Name
		ref.Signature = o.Method.Signature()
		ref.StartLine = o.Method.StartLine
		ref.EndLine = o.Method.EndLine
	}
	return ref
}

// Opportunity is a pair of methods from two different classes that share a
// signature and are textually near-identical.
type Opportunity struct {
	A, B           Occurrence
	NameSimilarity float64
	BodySimilarity float64
	BodyWindow     int
}

// Record returns the plain, serializable form of the opportunity.
func (o Opportunity) Record() OpportunityRecord {
	return OpportunityRecord{
		A:              o.A.Ref(),
		B:              o.B.Ref(),
		NameSimilarity: o.NameSimilarity,
		BodySimilarity: o.BodySimilarity,
		BodyWindow:     o.BodyWindow,
	}
}

// RelationshipGroup is a set of methods that can be pulled into one common
// superclass. Participants[0] always holds the representative.
type RelationshipGroup struct {
	Representative *MethodSignature
	Participants   []Occurrence
}

// Classes returns the distinct participating classes in participant order.
func (g *RelationshipGroup) Classes() []*ClassUnit {
	seen := make(map[*ClassUnit]bool, len(g.Participants))
	classes := make([]*ClassUnit, 0, len(g.Participants))
	for _, p := range g.Participants {
		if seen[p.Class] {
			continue
		}
		seen[p.Class] = true
		classes = append(classes, p.Class)
	}
	return classes
}

// Record returns the plain, serializable form of the group.
func (g *RelationshipGroup) Record(id int) GroupRecord {
	rec := GroupRecord{
		ID:           id,
		Participants: make([]MethodRef, len(g.Participants)),
	}
	for i, p := range g.Participants {
		rec.Participants[i] = p.Ref()
	}
	if len(rec.Participants) > 0 {
		rec.Representative = rec.Participants[0]
	}
	return rec
}

// MethodRef identifies a method by location.
type MethodRef struct {
	Class     string `json:"class" toon:"class"`
	File      string `json:"file" toon:"file"`
	Method    string `json:"method" toon:"method"`
	Signature string `json:"signature" toon:"signature"`
	StartLine uint32 `json:"start_line" toon:"start_line"`
	EndLine   uint32 `json:"end_line" toon:"end_line"`
}

// OpportunityRecord is a serializable Opportunity.
type OpportunityRecord struct {
	A              MethodRef `json:"a" toon:"a"`
	B              MethodRef `json:"b" toon:"b"`
	NameSimilarity float64   `json:"name_similarity" toon:"name_similarity"`
	BodySimilarity float64   `json:"body_similarity" toon:"body_similarity"`
	BodyWindow     int       `json:"body_window" toon:"body_window"`
}

// GroupRecord is a serializable RelationshipGroup.
type GroupRecord struct {
	ID             int         `json:"id" toon:"id"`
	Representative MethodRef   `json:"representative" toon:"representative"`
	Participants   []MethodRef `json:"participants" toon:"participants"`
}

// SuperclassAnalysis is the full result of one analysis run.
type SuperclassAnalysis struct {
	Opportunities []OpportunityRecord `json:"opportunities" toon:"opportunities"`
	Groups        []GroupRecord       `json:"groups" toon:"groups"`
	Summary       SuperclassSummary   `json:"summary" toon:"summary"`
	Threshold     float64             `json:"threshold" toon:"threshold"`
	ClusterMode   string              `json:"cluster_mode" toon:"cluster_mode"`
	Source        string              `json:"source" toon:"source"` // "working tree" or "commit <sha>"
}

// SuperclassSummary provides aggregate statistics.
type SuperclassSummary struct {
	FilesScanned       int     `json:"files_scanned" toon:"files_scanned"`
	FilesSkipped       int     `json:"files_skipped" toon:"files_skipped"`
	ClassesAnalyzed    int     `json:"classes_analyzed" toon:"classes_analyzed"`
	MethodsAnalyzed    int     `json:"methods_analyzed" toon:"methods_analyzed"`
	TotalOpportunities int     `json:"total_opportunities" toon:"total_opportunities"`
	TotalGroups        int     `json:"total_groups" toon:"total_groups"`
	ClassesInvolved    int     `json:"classes_involved" toon:"classes_involved"`
	MethodsInvolved    int     `json:"methods_involved" toon:"methods_involved"`
	LargestGroup       int     `json:"largest_group" toon:"largest_group"`
	AvgBodySimilarity  float64 `json:"avg_body_similarity" toon:"avg_body_similarity"`
	P50BodySimilarity  float64 `json:"p50_body_similarity" toon:"p50_body_similarity"`
	P95BodySimilarity  float64 `json:"p95_body_similarity" toon:"p95_body_similarity"`
	MinBodySimilarity  float64 `json:"min_body_similarity" toon:"min_body_similarity"`
}
