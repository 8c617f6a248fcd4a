package lists

import (
	"encoding/json"
	"net/http"

	"entrylist/features/engine"
	"entrylist/features/entry"
	"entrylist/features/lists"
	"entrylist/features/sites"
	"entrylist/features/web/handlers/response"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type ListsHandler struct {
	Store    *lists.Store
	Registry *sites.Registry
}

func NewListsHandler(store *lists.Store, reg *sites.Registry) *ListsHandler {
	return &ListsHandler{Store: store, Registry: reg}
}

// owner binds and validates in, and resolves the site to its registered name.
// The body is bound only when withBody is set.
func (h *ListsHandler) owner(c echo.Context, in any, o *OwnerInput, withBody bool) (lists.Owner, error) {
	b := &echo.DefaultBinder{}
	if err := b.BindPathParams(c, in); err != nil {
		return lists.Owner{}, response.BadRequest(c, err.Error())
	}
	if withBody {
		if err := b.BindBody(c, in); err != nil {
			return lists.Owner{}, response.BadRequest(c, "Invalid request body")
		}
	}
	if err := c.Validate(in); err != nil {
		return lists.Owner{}, response.BadRequest(c, err.Error())
	}
	def, ok := h.Registry.Get(o.Site)
	if !ok {
		return lists.Owner{}, response.NotFound(c, "Site not found", o.Site)
	}
	return lists.Owner{Site: def.Name, User: o.User}, nil
}

// Index returns the names of the stored lists.
func (h *ListsHandler) Index(c echo.Context) error {
	in := &OwnerInput{}
	o, err := h.owner(c, in, in, false)
	if err != nil || c.Response().Committed {
		return err
	}
	return response.Success(c, h.Store.LoadIndex(c.Request().Context(), o))
}

func (h *ListsHandler) Get(c echo.Context) error {
	in := &ListInput{}
	o, err := h.owner(c, in, &in.OwnerInput, false)
	if err != nil || c.Response().Committed {
		return err
	}

	l, ok := h.Store.Load(c.Request().Context(), o, in.List)
	if !ok {
		return response.ListNotFound(c, o, in.List)
	}
	return response.Success(c, l)
}

// Put replaces a list with the JSON object in the body.
func (h *ListsHandler) Put(c echo.Context) error {
	in := &ListInput{}
	o, err := h.owner(c, in, &in.OwnerInput, false)
	if err != nil || c.Response().Committed {
		return err
	}

	var l lists.List
	if err := json.NewDecoder(c.Request().Body).Decode(&l); err != nil {
		return response.BadRequest(c, "List must be a JSON object: "+err.Error())
	}
	if err := h.Store.Save(c.Request().Context(), o, in.List, l); err != nil {
		return response.FromError(c, "Could not save list", err)
	}

	log.Info().Str("site", o.Site).Str("user", o.User).Str("list", in.List).Int("entries", len(l)).Msg("List replaced")
	return response.Success(c, map[string]any{"list": in.List, "entries": len(l)})
}

func (h *ListsHandler) Delete(c echo.Context) error {
	in := &ListInput{}
	o, err := h.owner(c, in, &in.OwnerInput, false)
	if err != nil || c.Response().Committed {
		return err
	}
	if err := h.Store.Delete(c.Request().Context(), o, in.List); err != nil {
		return response.FromError(c, "Could not delete list", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ListsHandler) DeleteAll(c echo.Context) error {
	in := &OwnerInput{}
	o, err := h.owner(c, in, in, false)
	if err != nil || c.Response().Committed {
		return err
	}
	if err := h.Store.DeleteAll(c.Request().Context(), o); err != nil {
		return response.FromError(c, "Could not delete lists", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Toggle adds the entry in the body to the list, or removes it when present.
func (h *ListsHandler) Toggle(c echo.Context) error {
	in := &ToggleInput{}
	o, err := h.owner(c, in, &in.OwnerInput, true)
	if err != nil || c.Response().Committed {
		return err
	}

	added, err := engine.ToggleData(c.Request().Context(), h.Store, o, entry.Data{ID: in.ID, Name: in.Name}, in.List)
	if err != nil {
		return response.FromError(c, "Could not toggle entry", err)
	}
	return response.Success(c, map[string]any{"id": in.ID, "list": in.List, "added": added})
}
