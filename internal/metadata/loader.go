package metadata

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"fieldaccess/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefinitionSource lists the stored entity definitions.
type DefinitionSource interface {
	ListEntityDefinitions(ctx context.Context) ([]store.EntityDefinition, error)
}

// LoadAll reads all entity definitions from the store and populates the registry.
func LoadAll(ctx context.Context, src DefinitionSource, reg *Registry, log *zap.Logger) error {
	entities, err := loadEntities(ctx, src, log)
	if err != nil {
		return errors.Wrap(err, "load entities")
	}

	reg.Load(entities)
	LintAll(log, entities)

	log.Info("loaded entities into registry", zap.Int("entities", len(entities)))
	return nil
}

// Reload is an alias for LoadAll, called after admin mutations.
func Reload(ctx context.Context, src DefinitionSource, reg *Registry, log *zap.Logger) error {
	return LoadAll(ctx, src, reg, log)
}

func loadEntities(ctx context.Context, src DefinitionSource, log *zap.Logger) ([]*Entity, error) {
	defs, err := src.ListEntityDefinitions(ctx)
	if err != nil {
		return nil, err
	}

	entities := make([]*Entity, 0, len(defs))
	for _, def := range defs {
		entity, err := DecodeEntity(def.Definition)
		if err != nil {
			log.Warn("skipping entity with invalid definition", zap.String("entity", def.Name), zap.Error(err))
			continue
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// DecodeEntity parses and validates a JSON entity definition.
func DecodeEntity(data []byte) (*Entity, error) {
	var entity Entity
	if err := json.Unmarshal(data, &entity); err != nil {
		return nil, errors.Wrap(err, "decode entity")
	}
	if err := ValidateEntity(&entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

// EncodeEntity serializes an entity definition for storage.
func EncodeEntity(e *Entity) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, "encode entity")
	}
	return data, nil
}

// LoadFile reads entity definitions from a YAML or JSON file shaped as
// {"entities": [...]}. Every entity must validate.
func LoadFile(path string) ([]*Entity, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read entities file %s", path)
	}

	var doc struct {
		Entities []*Entity `mapstructure:"entities"`
	}
	if err := v.Unmarshal(&doc); err != nil {
		return nil, errors.Wrapf(err, "unmarshal entities file %s", path)
	}

	for _, e := range doc.Entities {
		if err := ValidateEntity(e); err != nil {
			return nil, errors.Wrapf(err, "entities file %s", path)
		}
	}
	return doc.Entities, nil
}
