// Package acquire implements the per-platform acquisition strategies. All
// strategies share one shape: resolve the transcoding engine, probe metadata,
// download and transcode through the external engine with progress callbacks,
// locate the produced file and sweep intermediate artifacts. The streaming
// service strategy additionally carries a fallback chain through its dedicated
// download tool, a metadata page scrape, and a video-platform search.
package acquire
