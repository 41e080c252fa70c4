package metadata

func sampleEntity() *Entity {
	return &Entity{
		Name:  "post",
		Label: "Posts",
		Fields: []Field{
			{Name: "title", Type: TypeText, Required: true},
			{Type: TypeRow, Fields: []Field{
				{Name: "author", Type: TypeText},
				{Name: "slug", Type: TypeText, Access: map[string]string{"create": "false"}},
			}},
			{Name: "meta", Type: TypeGroup, Fields: []Field{
				{Name: "description", Type: TypeTextarea},
			}},
			{Type: TypeTabs, Tabs: []Tab{
				{Name: "seo", Fields: []Field{{Name: "keywords", Type: TypeText}}},
				{Label: "Content", Fields: []Field{{Name: "body", Type: TypeTextarea}}},
			}},
		},
	}
}
