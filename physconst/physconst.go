// Package physconst holds the physical constants shared by the geometry
// and opacity kernels. Everything is in cgs units.
package physconst

// SpeedOfLight is c in cm/s.
const SpeedOfLight = 2.99792458e10

// PlanckH is the Planck constant h in erg*s.
const PlanckH = 6.6260755e-27

// BoltzmannK is the Boltzmann constant k_B in erg/K.
const BoltzmannK = 1.3806488e-16
