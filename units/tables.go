package units

const (
	metersPerAU     = 1.49597870700e11
	metersPerPc     = 3.08567758149e16
	kgPerMSun       = 1.98847e30
	secondsPerYr    = 3.15576e7
	secondsPerMyr   = 1e6 * secondsPerYr
	metersPerREarth = 6.371e6
	metersPerRSun   = 6.957e8
)

var (
	lengthTable = map[string]known{
		"m":       {1, "m"},
		"cm":      {1e-2, "cm"},
		"km":      {1e3, "km"},
		"r_earth": {metersPerREarth, "R_{\\oplus}"},
		"r_sun":   {metersPerRSun, "R_{\\odot}"},
		"au":      {metersPerAU, "AU"},
		"pc":      {metersPerPc, "pc"},
		"kpc":     {1e3 * metersPerPc, "kpc"},
	}

	massTable = map[string]known{
		"kg":      {1, "kg"},
		"g":       {1e-3, "g"},
		"m_earth": {5.9722e24, "M_{\\oplus}"},
		"m_jup":   {1.89813e27, "M_{J}"},
		"m_sun":   {kgPerMSun, "M_{\\odot}"},
	}

	timeTable = map[string]known{
		"s":   {1, "s"},
		"day": {86400, "days"},
		"yr":  {secondsPerYr, "yr"},
		"kyr": {1e3 * secondsPerYr, "kyr"},
		"myr": {secondsPerMyr, "Myr"},
	}

	velocityTable = map[string]known{
		"m_s":   {1, "m\\,s^{-1}"},
		"cm_s":  {1e-2, "cm\\,s^{-1}"},
		"km_s":  {1e3, "km\\,s^{-1}"},
		"au_yr": {metersPerAU / secondsPerYr, "AU\\,yr^{-1}"},
		"pc_myr": {
			metersPerPc / secondsPerMyr, "pc\\,Myr^{-1}",
		},
	}

	accelerationTable = map[string]known{
		"m_s2":  {1, "m\\,s^{-2}"},
		"cm_s2": {1e-2, "cm\\,s^{-2}"},
		"au_yr2": {
			metersPerAU / (secondsPerYr * secondsPerYr), "AU\\,yr^{-2}",
		},
		"pc_myr2": {
			metersPerPc / (secondsPerMyr * secondsPerMyr), "pc\\,Myr^{-2}",
		},
	}

	densityTable = map[string]known{
		"kg_m3": {1, "kg\\,m^{-3}"},
		"g_cm3": {1e3, "g\\,cm^{-3}"},
		"m_sun_pc3": {
			kgPerMSun / (metersPerPc * metersPerPc * metersPerPc),
			"M_{\\odot}\\,pc^{-3}",
		},
	}

	specificEnergyTable = map[string]known{
		"J_kg":   {1, "J\\,kg^{-1}"},
		"erg_g":  {1e-4, "erg\\,g^{-1}"},
		"km2_s2": {1e6, "km^{2}\\,s^{-2}"},
	}

	energyRateTable = map[string]known{
		"J_kg_s":  {1, "J\\,kg^{-1}\\,s^{-1}"},
		"erg_g_s": {1e-4, "erg\\,g^{-1}\\,s^{-1}"},
	}

	energyTable = map[string]known{
		"J":   {1, "J"},
		"erg": {1e-7, "erg"},
		"GJ":  {1e9, "GJ"},
	}
)

// NewSimUnits returns a SimUnits with the default code and output units:
// parsecs, solar masses, and megayears.
func NewSimUnits() *SimUnits {
	su := &SimUnits{dims: map[string]*Unit{}}
	add := func(attr, in, out string, table map[string]known) {
		su.dims[attr] = &Unit{Attr: attr, InUnit: in, OutUnit: out, table: table}
	}

	add("r", "pc", "pc", lengthTable)
	add("m", "m_sun", "m_sun", massTable)
	add("t", "myr", "myr", timeTable)
	add("v", "pc_myr", "km_s", velocityTable)
	add("a", "pc_myr2", "pc_myr2", accelerationTable)
	add("rho", "m_sun_pc3", "g_cm3", densityTable)
	add("u", "km2_s2", "J_kg", specificEnergyTable)
	add("dudt", "J_kg_s", "J_kg_s", energyRateTable)
	add("E", "J", "J", energyTable)

	return su
}
