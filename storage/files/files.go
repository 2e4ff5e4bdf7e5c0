// Package files stores uploaded assets either locally or in an S3-compatible bucket.
package files

import "github.com/trezcool/coachdesk/core"

// NewStore returns the asset store selected by the configuration.
func NewStore(conf *core.Config) (core.AssetStore, error) {
	if conf.UseS3() {
		return NewS3Store(conf.Storage)
	}
	return NewLocalStore(conf.Uploads.Dir)
}
