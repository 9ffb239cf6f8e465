package warehouse

import (
	"talentinsight/services/processing/internal/catalog"
	"talentinsight/services/processing/internal/dimension"
	"talentinsight/services/processing/internal/models"

	"go.uber.org/zap"
)

const CountrySentinel = catalog.CountrySentinel

// dimensions holds the rows of every dimension table for one load, in id
// order.
type dimensions struct {
	countries []models.Country
	skills    []models.Skill
	sources   []models.Source
	companies []models.Company
	dates     []dimension.Date
}

// buildDimensions registers the sentinel and curated members of every
// dimension. Ids depend only on the catalog and on company first-appearance
// order, so identical input always yields identical ids.
func buildDimensions(cat *catalog.Catalog, horizon dimension.Horizon, cur *models.Curated, logger *zap.Logger) (*dimension.Resolver, *dimensions, error) {
	if err := horizon.Validate(); err != nil {
		return nil, nil, err
	}

	r := dimension.NewResolver(logger)
	d := &dimensions{}

	d.countries = append(d.countries, models.Country{
		ID:   r.RegisterSentinel(dimension.Country, CountrySentinel),
		ISO2: CountrySentinel,
		Name: dimension.Unknown,
	})
	for _, c := range cat.Countries {
		d.countries = append(d.countries, models.Country{
			ID:       r.Register(dimension.Country, c.ISO2),
			ISO2:     c.ISO2,
			Name:     c.Name,
			Region:   c.Region,
			Currency: c.Currency,
		})
	}

	d.skills = append(d.skills, models.Skill{
		ID:    r.RegisterSentinel(dimension.Skill, dimension.Unknown),
		Group: dimension.Unknown,
		Label: dimension.Unknown,
	})
	for _, s := range cat.Skills {
		d.skills = append(d.skills, models.Skill{
			ID:    r.Register(dimension.Skill, s.Label),
			Group: s.Group,
			Label: s.Label,
		})
	}

	d.sources = append(d.sources, models.Source{
		ID:   r.RegisterSentinel(dimension.Source, dimension.Unknown),
		Name: dimension.Unknown,
	})
	for _, s := range cat.Sources {
		d.sources = append(d.sources, models.Source{
			ID:   r.Register(dimension.Source, s),
			Name: s,
		})
	}

	d.companies = append(d.companies, models.Company{
		ID:   r.RegisterSentinel(dimension.Company, dimension.Unknown),
		Name: dimension.Unknown,
	})
	next := dimension.SentinelID + 1
	for _, name := range cur.Companies() {
		// a company literally called "Unknown" folds into the sentinel
		if id := r.Register(dimension.Company, name); id == next {
			d.companies = append(d.companies, models.Company{ID: id, Name: name})
			next++
		}
	}

	d.dates = dimension.GenerateDates(horizon.Start, horizon.End())
	if err := r.RegisterDates(d.dates, horizon.Fallback); err != nil {
		return nil, nil, err
	}

	return r, d, nil
}
