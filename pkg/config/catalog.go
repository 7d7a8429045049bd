package config

// DefaultIndicators is the series set tracked when the config file lists none.
// Fallback values are chronological, newest last.
func DefaultIndicators() []IndicatorConfig {
	return []IndicatorConfig{
		{
			ID: "live_register", Label: "Live Register (unadjusted)", Unit: "persons",
			Source: "cso", Key: "LRM02",
			Filters: map[string]string{"Statistic": "Unadjusted", "Age Group": "All ages", "Sex": "Both sexes"},
		},
		{
			ID: "live_register_sa", Label: "Live Register (seasonally adjusted)", Unit: "persons",
			Source: "cso", Key: "LRM02",
			Filters: map[string]string{"Statistic": "Seasonally Adjusted", "Age Group": "All ages", "Sex": "Both sexes"},
		},
		{
			ID: "cpi", Label: "Consumer Price Index", Unit: "%",
			Source: "cso", Key: "CPM01",
			Filters: map[string]string{"Statistic": "12 months", "Commodity Group": "All items"},
		},
		{
			ID: "construction_costs", Label: "Construction cost index", Unit: "%",
			Source: "cso", Key: "BHQ06", Frequency: "quarterly",
			Filters: map[string]string{"Statistic": "Annual"},
		},
		{
			ID: "unemployment", Label: "Unemployment rate", Unit: "%",
			Source: "cso", Key: "MUM01",
			Filters: map[string]string{"Statistic": "Unemployment Rate", "Age Group": "15 - 74", "Sex": "Both sexes"},
		},
		{
			ID: "eur_gbp", Label: "EUR/GBP", Unit: "GBP",
			Source: "ecb", Key: "EXR.D.GBP.EUR.SP00.A", Frequency: "daily",
		},
		{
			ID: "eur_usd", Label: "EUR/USD", Unit: "USD",
			Source: "ecb", Key: "EXR.D.USD.EUR.SP00.A", Frequency: "daily",
		},
		{
			ID: "brent_crude", Label: "Brent crude", Unit: "$/barrel",
			Source: "yahoo", Key: "BZ=F", Frequency: "daily",
		},
		{
			// USD/MMBtu to an approximate GBp/therm
			ID: "natural_gas", Label: "Natural gas", Unit: "GBp/therm",
			Source: "yahoo", Key: "NG=F", Frequency: "daily", Scale: 2.5,
		},
		{
			ID: "ireland_10y", Label: "Ireland 10Y yield", Unit: "%",
			Source: "bonds", Key: "ireland", Frequency: "daily", Accumulate: true, FallbackFrequency: "monthly",
			Fallback: points(2.612, 2.662, 2.525, 2.797, 2.692, 3.060, 2.862, 2.905, 2.865, 2.931, 2.957, 2.944, 2.895, 2.907, 3.057),
		},
		{
			ID: "germany_10y", Label: "Germany 10Y yield", Unit: "%",
			Source: "bonds", Key: "germany", Frequency: "daily", Accumulate: true, FallbackFrequency: "monthly",
			Fallback: points(2.272, 2.314, 2.242, 2.513, 2.409, 2.789, 2.507, 2.582, 2.551, 2.659, 2.714, 2.703, 2.645, 2.684, 2.868),
		},
		{
			ID: "manufacturing_pmi", Label: "Manufacturing PMI", Unit: "index",
			Source: "pmi", Key: "manufacturing",
			Fallback: points(51.5, 49.9, 49.1, 51.3, 51.9, 51.6, 53.0, 52.6, 53.7, 53.2, 51.6, 51.6, 50.9, 52.8, 52.2),
		},
		{
			ID: "services_pmi", Label: "Services PMI", Unit: "index",
			Source: "pmi", Key: "services",
			Fallback: points(53.8, 58.3, 57.1, 53.4, 53.2, 55.3, 52.8, 54.7, 51.5, 50.9, 50.6, 53.5, 56.7, 58.5, 54.8),
		},
		{
			ID: "construction_pmi", Label: "Construction PMI", Unit: "index",
			Source: "pmi", Key: "construction",
			Fallback: points(49.4, 47.5, 51.6, 48.2, 48.7, 53.9, 52.4, 49.2, 48.6, 47.1, 45.9, 43.7, 48.1, 46.7, 48.4),
		},
		{
			ID: "consumer_sentiment", Label: "Consumer sentiment", Unit: "index",
			Source:   "static",
			Fallback: points(74.1, 74.1, 73.9, 74.9, 74.8, 67.5, 58.7, 60.8, 62.5, 59.1, 61.1, 61.7, 59.9, 61.0, 61.2),
		},
		{
			ID: "container_costs", Label: "Container rate Asia to North Europe", Unit: "$/40ft",
			Source: "static", Frequency: "weekly",
			Fallback: points(2841, 2730),
		},
		{
			ID: "corporate_insolvencies", Label: "Corporate insolvencies", Unit: "count",
			Source: "static", Frequency: "quarterly",
			Fallback: points(225, 206, 201, 211, 194),
		},
	}
}

// DefaultChartGroups mirrors the dashboard's combined charts.
func DefaultChartGroups() []ChartGroup {
	return []ChartGroup{
		{Name: "pmi", Title: "PMI", Indicators: []string{"manufacturing_pmi", "services_pmi", "construction_pmi"}, Monthly: true},
		{Name: "fx", Title: "Euro exchange rates (monthly average)", Indicators: []string{"eur_gbp", "eur_usd"}, Monthly: true},
		{Name: "bonds", Title: "10Y government bond yields", Indicators: []string{"ireland_10y", "germany_10y"}},
		{Name: "commodities", Title: "Brent crude and natural gas", Indicators: []string{"brent_crude", "natural_gas"}},
		{Name: "live_register", Title: "Live Register", Indicators: []string{"live_register", "live_register_sa"}},
	}
}

// points builds undated points; dates are derived from the indicator frequency.
func points(values ...float64) []PointConfig {
	out := make([]PointConfig, len(values))
	for i, v := range values {
		out[i] = PointConfig{Value: v}
	}
	return out
}
