// Package semantic scores diseases by symptom-set overlap.
//
// Query symptoms are canonicalized through the same Normalizer used at
// enrichment time and compared to a disease's normalized symptoms with the
// Jaccard index. Each distinct discriminant term in the intersection
// multiplies the score by the boost factor, up to a hard cap (see Boost).
// An optional bonus rewards diseases whose cluster weights fall in the
// clusters implied by the query.
package semantic
