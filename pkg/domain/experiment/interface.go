package experiment

import (
	"github.com/modelyard/modelyard/pkg/domain/experiment/db"
)

type Interface interface {
	Database() db.Interface
}

type impl struct {
	db db.Interface
}

func New(db db.Interface) Interface {
	return &impl{db: db}
}

func (i *impl) Database() db.Interface {
	return i.db
}
