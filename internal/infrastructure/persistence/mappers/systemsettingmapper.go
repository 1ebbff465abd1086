package mappers

import (
	"github.com/orris-inc/usdtpay/internal/domain/setting"
	"github.com/orris-inc/usdtpay/internal/infrastructure/persistence/models"
)

// SystemSettingMapper provides methods for converting between domain and model
type SystemSettingMapper interface {
	ToDomain(model *models.SystemSettingModel) *setting.Setting
	ToModel(domain *setting.Setting) *models.SystemSettingModel
	ToDomainList(modelList []*models.SystemSettingModel) []*setting.Setting
}

// SystemSettingMapperImpl implements SystemSettingMapper
type SystemSettingMapperImpl struct{}

// NewSystemSettingMapper creates a new SystemSettingMapper
func NewSystemSettingMapper() SystemSettingMapper {
	return &SystemSettingMapperImpl{}
}

func (m *SystemSettingMapperImpl) ToDomain(model *models.SystemSettingModel) *setting.Setting {
	if model == nil {
		return nil
	}

	return &setting.Setting{
		Key:       setting.Key(model.SettingKey),
		Value:     model.Value,
		UpdatedAt: model.UpdatedAt.UTC(),
	}
}

func (m *SystemSettingMapperImpl) ToModel(domain *setting.Setting) *models.SystemSettingModel {
	if domain == nil {
		return nil
	}

	return &models.SystemSettingModel{
		SettingKey: string(domain.Key),
		Value:      domain.Value,
		UpdatedAt:  domain.UpdatedAt,
	}
}

func (m *SystemSettingMapperImpl) ToDomainList(modelList []*models.SystemSettingModel) []*setting.Setting {
	out := make([]*setting.Setting, 0, len(modelList))
	for _, model := range modelList {
		if s := m.ToDomain(model); s != nil {
			out = append(out, s)
		}
	}
	return out
}
