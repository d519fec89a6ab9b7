// Package autohds implements Hierarchical Density Shaving (HDS) and its
// automatic simplification Auto-HDS.
//
// A point is dense when at least Neps points, itself included, lie within a
// radius of it. HDS shaves a fraction Fshave of the points off as sparse,
// then repeatedly shaves a fraction Rshave of the remaining dense points,
// each step shrinking the radius. At every level the dense points split into
// connected components, which gives a hierarchy of clusters. Auto-HDS keeps
// one label for a cluster as long as it does not break into two or more
// parts larger than RuntSize, and ranks the resulting clusters by how many
// shaving steps they survive.
//
// Basic usage:
//
//	cfg := autohds.DefaultConfig()
//	cfg.Neps = 10
//	result, err := autohds.Run("genes.txt", cfg)
//	// result.State.Labels[i][level] is point i's HDS label at level (0 = sparse)
//	// result.Hierarchy.Ranked() lists the clusters, most stable first
//
// Run writes every intermediate and result file next to the data file and
// reuses them on later runs with compatible parameters. For in-memory data:
//
//	result, err := autohds.Cluster(points, cfg)
//	result, err := autohds.ClusterPrecomputed(distMatrix, n, cfg)
//
// # Distances
//
// Vectors are compared by squared Euclidean distance after optional
// per-row preprocessing, so Pearson and Cosine distances come out of the
// same computation. Distance rows are computed one batch at a time, sorted
// only as deep as needed and staged on disk, which keeps memory linear in
// the number of points apart from the neighbour lists of dense points.
package autohds
