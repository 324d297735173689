package state

import (
	"go.uber.org/zap"

	"github.com/indieinfra/cloudshelf/config"
	"github.com/indieinfra/cloudshelf/media"
	mediastore "github.com/indieinfra/cloudshelf/storage/media"
	"github.com/indieinfra/cloudshelf/storage/record"
)

type CloudshelfState struct {
	Cfg         *config.Config
	Validator   *media.Validator
	MediaStore  mediastore.MediaStore
	RecordStore record.RecordStore
	Logger      *zap.SugaredLogger
}
