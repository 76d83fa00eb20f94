// Package state persists configuration profiles and resolves them into a
// scope.
//
// A Store loads and saves one profile per Ref. The Resolver loads several
// refs, orders them by priority and opens a single scope on a
// jsconfig.Runtime holding the merged result:
//
//	Store -> Resolver.Resolve -> jsconfig.ProfileSet -> Runtime.BeginProfiles
//
// Meta.SnapshotID is copied onto Profile.SnapshotID so the revision a scope
// was built from stays visible to callers. Meta.ETag guards Resolver.Mutate
// against concurrent writers.
package state
