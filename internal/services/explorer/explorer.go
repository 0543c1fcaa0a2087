package explorer

import (
	"context"
	"fmt"
	"strings"

	"github.com/iwtcode/industrialGateway/internal/domain/models"
	"github.com/iwtcode/industrialGateway/internal/interfaces"
	"github.com/iwtcode/industrialGateway/internal/middleware/logging"
	"github.com/iwtcode/industrialGateway/internal/services/gateway"
	"github.com/iwtcode/industrialGateway/pkg/opcuaparse"
)

const (
	// RootNodeID - корень адресного пространства OPC UA.
	RootNodeID = "i=84"

	defaultRecursiveDepth = 3
	defaultRelevantDepth  = 4
)

// HandleSource отдает живой handle подключенного эндпоинта на время
// одного вызова. Реализуется сервисом шлюза.
type HandleSource interface {
	Borrow(name string) (*gateway.Handle, error)
}

// Service - движок обзора адресного пространства OPC UA: обход детей,
// рекурсивный обход, подбор значимых переменных, поиск и таблица
// пространств имен. Собственных подключений не держит, работает поверх
// реестра шлюза.
type Service struct {
	handles HandleSource
	logger  *logging.Logger
}

var _ interfaces.ExplorerService = (*Service)(nil)

func NewExplorerService(handles HandleSource, logger *logging.Logger) *Service {
	return &Service{
		handles: handles,
		logger:  logger.WithPrefix("EXPLORER"),
	}
}

// browser достает из handle драйвер с поддержкой навигации.
func (s *Service) browser(endpoint string) (interfaces.Browser, error) {
	h, err := s.handles.Borrow(endpoint)
	if err != nil {
		return nil, err
	}
	b, ok := h.Driver.(interfaces.Browser)
	if !ok {
		return nil, fmt.Errorf("эндпоинт '%s' не поддерживает обзор адресного пространства", endpoint)
	}
	return b, nil
}

// BrowseChildren возвращает непосредственных детей узла. Для переменных
// читаются значение, тип данных и признак записи; ошибка чтения значения
// сворачивается в запись узла и не прерывает обзор.
func (s *Service) BrowseChildren(ctx context.Context, endpoint, nodeID string) ([]models.NodeRecord, error) {
	if nodeID == "" {
		nodeID = RootNodeID
	}

	h, err := s.handles.Borrow(endpoint)
	if err != nil {
		return nil, err
	}
	b, ok := h.Driver.(interfaces.Browser)
	if !ok {
		return nil, fmt.Errorf("эндпоинт '%s' не поддерживает обзор адресного пространства", endpoint)
	}

	raw, err := b.BrowseChildren(ctx, nodeID)
	if err != nil {
		return nil, fmt.Errorf("обзор узла '%s' не удался: %w", nodeID, err)
	}

	records := make([]models.NodeRecord, 0, len(raw))
	for _, rn := range raw {
		rec := buildRecord(rn, 0)
		if rec.NodeClass == models.NodeClassVariable {
			s.readVariable(ctx, h.Driver, b, &rec, true)
		}
		records = append(records, rec)
	}
	return records, nil
}

// RecursiveBrowse обходит поддерево узла в глубину. Спуск идет только в
// узлы класса Object; ошибка обзора поддерева логируется и не прерывает
// обход остальных ветвей.
func (s *Service) RecursiveBrowse(ctx context.Context, endpoint, nodeID string, maxDepth int) ([]models.NodeRecord, error) {
	if nodeID == "" {
		nodeID = RootNodeID
	}
	if maxDepth <= 0 {
		maxDepth = defaultRecursiveDepth
	}

	h, err := s.handles.Borrow(endpoint)
	if err != nil {
		return nil, err
	}
	b, ok := h.Driver.(interfaces.Browser)
	if !ok {
		return nil, fmt.Errorf("эндпоинт '%s' не поддерживает обзор адресного пространства", endpoint)
	}

	var records []models.NodeRecord
	s.walk(ctx, h.Driver, b, nodeID, 0, maxDepth, func(rec models.NodeRecord) bool {
		records = append(records, rec)
		return true
	})
	return records, nil
}

// RelevantVariables подбирает переменные, значимые для мониторинга:
// пользовательские пространства имен целиком плюс короткий список
// системных узлов ns=0.
func (s *Service) RelevantVariables(ctx context.Context, endpoint string, maxDepth int) ([]models.NodeRecord, error) {
	if maxDepth <= 0 {
		maxDepth = defaultRelevantDepth
	}

	h, err := s.handles.Borrow(endpoint)
	if err != nil {
		return nil, err
	}
	b, ok := h.Driver.(interfaces.Browser)
	if !ok {
		return nil, fmt.Errorf("эндпоинт '%s' не поддерживает обзор адресного пространства", endpoint)
	}

	var relevant []models.NodeRecord
	s.walk(ctx, h.Driver, b, RootNodeID, 0, maxDepth, func(rec models.NodeRecord) bool {
		if rec.NodeClass == models.NodeClassVariable && rec.IsRelevant {
			relevant = append(relevant, rec)
		}
		return true
	})
	return relevant, nil
}

// walk - общий рекурсивный обход: на каждом уровне эмитит записи детей и
// спускается в Object-узлы, пока не исчерпана глубина. Записи отдаются
// для глубин 0..maxDepth включительно: спуск в Object на предпоследнем
// уровне перечисляет его детей на уровне maxDepth.
func (s *Service) walk(ctx context.Context, d interfaces.Driver, b interfaces.Browser, nodeID string, depth, maxDepth int, emit func(models.NodeRecord) bool) {
	if depth > maxDepth {
		return
	}
	if ctx.Err() != nil {
		return
	}

	raw, err := b.BrowseChildren(ctx, nodeID)
	if err != nil {
		s.logger.Warn("Failed to browse subtree", "node_id", nodeID, "depth", depth, "error", err)
		return
	}

	for _, rn := range raw {
		rec := buildRecord(rn, depth)
		if rec.NodeClass == models.NodeClassVariable {
			s.readVariable(ctx, d, b, &rec, false)
		}
		if !emit(rec) {
			return
		}
		if rec.NodeClass == models.NodeClassObject && depth < maxDepth {
			s.walk(ctx, d, b, rn.NodeID, depth+1, maxDepth, emit)
		}
	}
}

// Search ищет узлы по подстроке имени среди детей корневых объектов.
// Сравнение без учета регистра по browse и display именам.
func (s *Service) Search(ctx context.Context, endpoint, term string) ([]models.NodeRecord, error) {
	if term == "" {
		return nil, fmt.Errorf("пустая строка поиска")
	}

	h, err := s.handles.Borrow(endpoint)
	if err != nil {
		return nil, err
	}
	b, ok := h.Driver.(interfaces.Browser)
	if !ok {
		return nil, fmt.Errorf("эндпоинт '%s' не поддерживает обзор адресного пространства", endpoint)
	}

	needle := strings.ToLower(term)
	var found []models.NodeRecord
	s.walk(ctx, h.Driver, b, RootNodeID, 0, defaultRecursiveDepth, func(rec models.NodeRecord) bool {
		if strings.Contains(strings.ToLower(rec.BrowseName), needle) ||
			strings.Contains(strings.ToLower(rec.DisplayName), needle) {
			found = append(found, rec)
		}
		return true
	})
	return found, nil
}

// Namespaces возвращает таблицу пространств имен сервера с примером
// формата идентификатора для каждого индекса.
func (s *Service) Namespaces(ctx context.Context, endpoint string) ([]models.NamespaceInfo, error) {
	b, err := s.browser(endpoint)
	if err != nil {
		return nil, err
	}

	uris, err := b.Namespaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("чтение таблицы пространств имен не удалось: %w", err)
	}

	infos := make([]models.NamespaceInfo, 0, len(uris))
	for i, uri := range uris {
		infos = append(infos, models.NamespaceInfo{
			Index:         i,
			URI:           uri,
			NodeIDExample: fmt.Sprintf("ns=%d;s=SomeVariable", i),
		})
	}
	return infos, nil
}

// buildRecord превращает сырой узел драйвера в запись обзора: разбор
// идентификатора из структурных частей, имя класса, значимость и
// категория.
func buildRecord(rn models.RawNode, depth int) models.NodeRecord {
	parsed := opcuaparse.FromParts(rn.Identifier, rn.Namespace, rn.IDType)
	return models.NodeRecord{
		NodeID:       rn.NodeID,
		NodeIDParsed: parsed,
		NodeIDSimple: parsed.Simple,
		BrowseName:   rn.BrowseName,
		DisplayName:  rn.DisplayName,
		NodeClass:    models.NodeClassName(rn.NodeClass),
		Namespace:    rn.Namespace,
		Depth:        depth,
		IsRelevant:   opcuaparse.ShouldInclude(rn.Namespace, rn.BrowseName, rn.DisplayName),
		Category:     opcuaparse.Classify(rn.BrowseName),
	}
}

// readVariable дополняет запись переменной значением, типом данных и,
// при withWritable, признаком записи. Любая ошибка чтения сворачивается
// в запись и не возвращается наружу.
func (s *Service) readVariable(ctx context.Context, d interfaces.Driver, b interfaces.Browser, rec *models.NodeRecord, withWritable bool) {
	if value, err := d.ReadValue(ctx, rec.NodeID); err != nil {
		ev := models.ReadErrorValue(err)
		rec.Value = &ev
	} else {
		rec.Value = &value
	}

	if dt, err := b.DataType(ctx, rec.NodeID); err != nil {
		rec.DataType = "Unknown"
		rec.DataTypeName = "Unknown"
	} else {
		parsed := opcuaparse.ParseDataType(dt)
		rec.DataType = dt
		rec.DataTypeName = parsed.Formatted
	}

	if withWritable {
		if w, err := b.Writable(ctx, rec.NodeID); err == nil {
			rec.Writable = &w
		}
	}
}
