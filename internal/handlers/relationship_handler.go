package handlers

import (
	"net/http"

	"ortografia/internal/service"
)

// RelationshipHandler handles parent-child links
type RelationshipHandler struct {
	relationshipService *service.RelationshipService
}

// NewRelationshipHandler creates a new relationship handler
func NewRelationshipHandler(relationshipService *service.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{relationshipService: relationshipService}
}

// LinkParent links a parent account to the student in the path
func (h *RelationshipHandler) LinkParent(w http.ResponseWriter, r *http.Request) {
	studentID, err := pathID(r, "studentId")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var in service.LinkInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, err)
		return
	}

	rel, err := h.relationshipService.LinkParentChild(r.Context(), actor(r), studentID, in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"message": "parent linked", "relationship": rel})
}

// MyChildren lists the acting parent's children
func (h *RelationshipHandler) MyChildren(w http.ResponseWriter, r *http.Request) {
	children, err := h.relationshipService.ChildrenFor(r.Context(), actor(r))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"children": children})
}
