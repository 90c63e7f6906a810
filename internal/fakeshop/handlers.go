package fakeshop

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// DefaultLimit is the page size when none is requested.
const DefaultLimit = 10

// resourceKind reports whether name is known and whether it is single-only.
func (s *Server) resourceKind(name string) (known, single bool) {
	factory, ok := s.registry.Lookup(name)
	if !ok {
		return false, false
	}

	return true, factory(nil).IsSingleOnly()
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")

	known, single := s.resourceKind(resource)
	if !known {
		respondError(w, http.StatusNotFound, "Unknown resource")

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if single {
		entity := s.singles[resource]
		if entity == nil {
			entity = Record{}
		}

		respondJSON(w, http.StatusOK, entity)

		return
	}

	query := r.URL.Query()

	records, err := filterRecords(s.collections[resource], query.Get("filters"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())

		return
	}

	sortRecords(records, query.Get("order"))

	limit := DefaultLimit
	if raw := query.Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
		if limit < 1 || limit > 50 {
			respondError(w, http.StatusBadRequest, "Invalid limit")

			return
		}
	}

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}

	pages := (len(records) + limit - 1) / limit

	start := min((page-1)*limit, len(records))
	end := min(start+limit, len(records))

	respondJSON(w, http.StatusOK, map[string]any{
		// The shop reports count as a string.
		"count": strconv.Itoa(len(records)),
		"pages": pages,
		"page":  page,
		"list":  records[start:end],
	})
}

func (s *Server) handleGetOne(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexLocked(resource, id)
	if index < 0 {
		respondError(w, http.StatusNotFound, "Object not found")

		return
	}

	respondJSON(w, http.StatusOK, s.collections[resource][index])
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")

	known, single := s.resourceKind(resource)
	if !known || single {
		respondError(w, http.StatusNotFound, "Unknown resource")

		return
	}

	var record Record

	err := json.NewDecoder(r.Body).Decode(&record)
	if err != nil || record == nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.insertLocked(resource, record)

	respondJSON(w, http.StatusOK, id)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	id := chi.URLParam(r, "id")

	var changes Record

	err := json.NewDecoder(r.Body).Decode(&changes)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		known, single := s.resourceKind(resource)
		if !known || !single {
			respondError(w, http.StatusBadRequest, "Identifier required")

			return
		}

		entity := s.singles[resource]
		if entity == nil {
			entity = Record{}
		}

		for key, value := range changes {
			entity[key] = value
		}

		s.singles[resource] = entity
		respondJSON(w, http.StatusOK, true)

		return
	}

	index := s.indexLocked(resource, id)
	if index < 0 {
		respondError(w, http.StatusNotFound, "Object not found")

		return
	}

	for key, value := range changes {
		if key == IDField(resource) {
			continue
		}

		s.collections[resource][index][key] = value
	}

	respondJSON(w, http.StatusOK, true)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		known, single := s.resourceKind(resource)
		if !known || !single {
			respondError(w, http.StatusBadRequest, "Identifier required")

			return
		}

		delete(s.singles, resource)
		respondJSON(w, http.StatusOK, true)

		return
	}

	index := s.indexLocked(resource, id)
	if index < 0 {
		respondError(w, http.StatusNotFound, "Object not found")

		return
	}

	records := s.collections[resource]
	s.collections[resource] = append(records[:index], records[index+1:]...)

	respondJSON(w, http.StatusOK, true)
}

func (s *Server) insertLocked(resource string, record Record) int {
	field := IDField(resource)

	id, ok := numericID(record[field])
	if !ok {
		s.nextID[resource]++
		id = s.nextID[resource]
	} else if id > s.nextID[resource] {
		s.nextID[resource] = id
	}

	record[field] = id
	s.collections[resource] = append(s.collections[resource], record)

	return id
}

func (s *Server) indexLocked(resource, id string) int {
	field := IDField(resource)

	for i, record := range s.collections[resource] {
		if fmt.Sprint(record[field]) == id {
			return i
		}
	}

	return -1
}

func numericID(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	case string:
		id, err := strconv.Atoi(v)

		return id, err == nil
	default:
		return 0, false
	}
}

// filterRecords applies a filters object. A field maps either to a value
// (equality) or to an object of operator/value pairs: "=", "!=", "<", "<=",
// ">", ">=".
func filterRecords(records []Record, raw string) ([]Record, error) {
	matched := make([]Record, 0, len(records))

	if raw == "" {
		return append(matched, records...), nil
	}

	var filters map[string]any

	err := json.Unmarshal([]byte(raw), &filters)
	if err != nil {
		return nil, fmt.Errorf("invalid filters: %w", err)
	}

	for _, record := range records {
		if matches(record, filters) {
			matched = append(matched, record)
		}
	}

	return matched, nil
}

func matches(record Record, filters map[string]any) bool {
	for field, condition := range filters {
		operators, ok := condition.(map[string]any)
		if !ok {
			operators = map[string]any{"=": condition}
		}

		for operator, operand := range operators {
			if !compare(record[field], operator, operand) {
				return false
			}
		}
	}

	return true
}

func compare(value any, operator string, operand any) bool {
	left, leftNum := toNumber(value)
	right, rightNum := toNumber(operand)
	numeric := leftNum && rightNum

	switch operator {
	case "=":
		if numeric {
			return left == right
		}

		return fmt.Sprint(value) == fmt.Sprint(operand)
	case "!=":
		if numeric {
			return left != right
		}

		return fmt.Sprint(value) != fmt.Sprint(operand)
	case "<":
		return numeric && left < right
	case "<=":
		return numeric && left <= right
	case ">":
		return numeric && left > right
	case ">=":
		return numeric && left >= right
	default:
		return false
	}
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case float64:
		return v, true
	case string:
		n, err := strconv.ParseFloat(v, 64)

		return n, err == nil
	default:
		return 0, false
	}
}

// sortRecords orders by "<field> <asc|desc>"; an empty order keeps insertion order.
func sortRecords(records []Record, order string) {
	fields := strings.Fields(order)
	if len(fields) == 0 {
		return
	}

	field := fields[0]
	desc := len(fields) > 1 && strings.EqualFold(fields[1], "desc")

	sort.SliceStable(records, func(i, j int) bool {
		left, right := records[i][field], records[j][field]
		if desc {
			left, right = right, left
		}

		leftNum, leftOK := toNumber(left)
		rightNum, rightOK := toNumber(right)

		if leftOK && rightOK {
			return leftNum < rightNum
		}

		return fmt.Sprint(left) < fmt.Sprint(right)
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondOAuthError(w http.ResponseWriter, status int, code, description string) {
	respondJSON(w, status, map[string]string{
		"error":             code,
		"error_description": description,
	})
}
