// Package tmap converts viewer layers into a TissUUmaps project directory.
//
// A project is a folder named after the output path (ending in .tmap) that
// holds a JSON manifest plus one artifact per layer:
//
//	<name>.tmap/
//	  main.tmap                 JSON manifest
//	  images/<layer>.tif        image layers
//	  labels/<layer>.tif        label layers (recolored)
//	  points/<layer>.csv        point layers
//	  regions/regions.json      aggregated shape layers
//
// The package is two pure transforms plus a thin orchestrator:
//
//   - [BuildConfig] walks the layer list once and assembles the manifest,
//     assigning every image and labels layer a sequential index that keys
//     its filter, opacity, and visibility records.
//   - [Features] converts one shapes layer into a GeoJSON-like feature
//     collection, tessellating ellipses and folding open polylines into
//     degenerate closed rings.
//   - [Write] creates the directory tree, runs both transforms, writes the
//     per-layer artifacts, and returns the paths it wrote.
//
// Everything is built fresh per call; nothing is cached or shared between
// invocations. Layers of a kind the exporter does not understand are logged
// and skipped so a newer host can still export the rest of its session.
package tmap
