// Package gormwatch provides a GORM backed watchpager.Watcher.
//
// A Client runs queries against a *gorm.DB and caches their latest results by
// query key. Every watch on a key observes the cache, so a new result for a
// key, whether fetched by another watch or written with Client.Write, reaches
// all of them as a cache event.
//
// Concurrent fetches of the same key share one database round trip.
//
// PageQuery and NewPager plug keyset pagination into a watchpager.Pager:
//
//	client := gormwatch.New[gormwatch.Page[User]](db)
//	first := gormwatch.NewPageQuery("users",
//		keyset.NewQuery().WithLimit(20).WithLookahead().WithSort(keyset.OrderBy{Column: "id", Direction: keyset.DirectionASC}),
//		keyset.Getters[User]{"id": func(u User) any { return u.ID }},
//		func(db *gorm.DB) *gorm.DB { return db.Model(&User{}) },
//	)
//	pager := gormwatch.NewPager(client, first)
//	stop := pager.Subscribe(render)
//	defer stop()
//	pager.Fetch(watchpager.DefaultFetchPolicy)
package gormwatch
