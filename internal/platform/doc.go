// Package platform provides filesystem helpers shared by all acquisition
// strategies: filename sanitizing, locating engine output whose final
// extension is not predictable, and sweeping intermediate download artifacts.
package platform
