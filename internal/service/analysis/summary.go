package analysis

import (
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/panbanda/hoist/pkg/models"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// summarize computes aggregate statistics for one run.
func summarize(classes []*models.ClassUnit, opps []models.Opportunity, groups []*models.RelationshipGroup) models.SuperclassSummary {
	summary := models.SuperclassSummary{
		ClassesAnalyzed:    len(classes),
		TotalOpportunities: len(opps),
		TotalGroups:        len(groups),
	}

	// Dense ids for every class and method so that membership can be
	// tracked in bitmaps.
	classIDs := make(map[*models.ClassUnit]uint32, len(classes))
	methodIDs := make(map[*models.MethodSignature]uint32)
	for _, c := range classes {
		classIDs[c] = uint32(len(classIDs))
		for _, m := range c.Methods {
			methodIDs[m] = uint32(len(methodIDs))
		}
	}
	summary.MethodsAnalyzed = len(methodIDs)

	involvedClasses := roaring.New()
	involvedMethods := roaring.New()
	for _, g := range groups {
		summary.LargestGroup = max(summary.LargestGroup, len(g.Participants))
		for _, p := range g.Participants {
			if id, ok := classIDs[p.Class]; ok {
				involvedClasses.Add(id)
			}
			if id, ok := methodIDs[p.Method]; ok {
				involvedMethods.Add(id)
			}
		}
	}
	summary.ClassesInvolved = int(involvedClasses.GetCardinality())
	summary.MethodsInvolved = int(involvedMethods.GetCardinality())

	if len(opps) == 0 {
		return summary
	}
	sims := make([]float64, len(opps))
	for i, o := range opps {
		sims[i] = o.BodySimilarity
	}
	slices.Sort(sims)
	summary.AvgBodySimilarity = stat.Mean(sims, nil)
	summary.P50BodySimilarity = stat.Quantile(0.5, stat.Empirical, sims, nil)
	summary.P95BodySimilarity = stat.Quantile(0.95, stat.Empirical, sims, nil)
	summary.MinBodySimilarity = floats.Min(sims)
	return summary
}
