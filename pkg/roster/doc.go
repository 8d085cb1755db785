// Package roster provides team listings and squads: a local JSON cache and a
// TheSportsDB v2 client, both behind ports.RosterProvider.
package roster
