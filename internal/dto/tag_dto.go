package dto

type UpdateTagRequest struct {
	Targets []string `json:"targets" validate:"required,min=1,dive,required"`
}

type TagsResponse struct {
	AllTags  []string            `json:"all_tags"`
	Sessions map[string][]string `json:"sessions"`
	Targets  map[string][]string `json:"targets"`
}
