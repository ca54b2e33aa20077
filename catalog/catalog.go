package catalog

import (
	"github.com/civicdata/metastore/store"
)

// Catalog bundles the four entity repositories over one store.
type Catalog struct {
	Datasets      *DatasetRepository
	Versions      *VersionRepository
	Editions      *EditionRepository
	Distributions *DistributionRepository
}

// New wires the repositories, linking each level to the repository of its
// child type for cascading deletes.
func New(s *store.Store) *Catalog {
	c := &Catalog{}
	c.Distributions = &DistributionRepository{engine{
		store: s,
		typ:   store.TypeDistribution,
	}}
	c.Editions = &EditionRepository{engine{
		store:     s,
		typ:       store.TypeEdition,
		childType: store.TypeDistribution,
		child:     func() Repository { return c.Distributions },
	}}
	c.Versions = &VersionRepository{engine{
		store:     s,
		typ:       store.TypeVersion,
		childType: store.TypeEdition,
		child:     func() Repository { return c.Editions },
	}}
	c.Datasets = &DatasetRepository{engine{
		store:     s,
		typ:       store.TypeDataset,
		childType: store.TypeVersion,
		child:     func() Repository { return c.Versions },
	}}
	return c
}

// RepositoryFor returns the repository managing the given entity type, or
// nil for an unknown type.
func (c *Catalog) RepositoryFor(typ store.EntityType) Repository {
	switch typ {
	case store.TypeDataset:
		return c.Datasets
	case store.TypeVersion:
		return c.Versions
	case store.TypeEdition:
		return c.Editions
	case store.TypeDistribution:
		return c.Distributions
	default:
		return nil
	}
}
