// Package model содержит модели данных каталога.
//
// Группа: ENTITIES - Основные сущности
// Содержит: Track, Collection, QualityLevel, LibraryMatch
package model

// QualityLevel представляет уровень качества звука
type QualityLevel string

const (
	// QualityStandard стандартное качество
	QualityStandard QualityLevel = "standard"

	// QualityExhigh повышенное качество
	QualityExhigh QualityLevel = "exhigh"

	// QualityLossless без потерь (FLAC)
	QualityLossless QualityLevel = "lossless"

	// QualityHires Hi-Res
	QualityHires QualityLevel = "hires"

	// QualitySky иммерсивный объемный звук
	QualitySky QualityLevel = "sky"

	// QualityJyeffect объемный звук высокой четкости
	QualityJyeffect QualityLevel = "jyeffect"

	// QualityJymaster мастер-качество
	QualityJymaster QualityLevel = "jymaster"
)

// AllQualityLevels перечисляет поддерживаемые уровни качества
var AllQualityLevels = []QualityLevel{
	QualityStandard,
	QualityExhigh,
	QualityLossless,
	QualityHires,
	QualitySky,
	QualityJyeffect,
	QualityJymaster,
}

// String возвращает строковое представление уровня качества
func (q QualityLevel) String() string {
	return string(q)
}

// IsValid проверяет, что уровень качества поддерживается
func (q QualityLevel) IsValid() bool {
	for _, level := range AllQualityLevels {
		if q == level {
			return true
		}
	}
	return false
}

// DisplayName возвращает отображаемое имя уровня качества
func (q QualityLevel) DisplayName() string {
	switch q {
	case QualityStandard:
		return "Standard"
	case QualityExhigh:
		return "High"
	case QualityLossless:
		return "Lossless"
	case QualityHires:
		return "Hi-Res"
	case QualitySky:
		return "Immersive Surround"
	case QualityJyeffect:
		return "HD Surround"
	case QualityJymaster:
		return "Master"
	default:
		return "Unknown (" + string(q) + ")"
	}
}
