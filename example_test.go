package prefetch_test

import (
	"context"
	"fmt"

	"github.com/jinzhu/gorm"

	"github.com/coursehero/prefetch"
)

//One forces a single valued relationship to load before the source query
//runs. The helper returns the query it was given, so further calls chain on
//the same handle.
func ExampleOne() {
	var db *gorm.DB

	//example structs
	type Author struct {
		AuthorID uint `gorm:"primary_key"`
		Name     string
	}

	type Post struct {
		PostID   uint `gorm:"primary_key"`
		AuthorID uint
		Title    string

		Author Author `gorm:"foreignkey:AuthorID;association_foreignkey:AuthorID"`
	}

	ctx := context.Background()
	tc := prefetch.NewContext(db)

	q := tc.Query(&Post{}).Where("post_id IN (?)", []uint{1, 2})
	if _, err := prefetch.One(ctx, q, "Author"); err != nil {
		fmt.Printf("err = %v\n", err)
	}

	var posts []Post
	if err := q.Find(ctx, &posts); err != nil {
		fmt.Printf("err = %v\n", err)
	}

	//authors were materialized up front, navigation resolves in memory
	for _, p := range posts {
		fmt.Printf("%s by %s\n", p.Title, p.Author.Name)
	}
}

//ManyScoped narrows the related set before it is materialized. Only entities
//surviving the scope end up connected.
func ExampleManyScoped() {
	var db *gorm.DB

	//example structs
	type Comment struct {
		CommentID uint `gorm:"primary_key"`
		PostID    uint
		Body      string
		Spam      bool
	}

	type Post struct {
		PostID uint `gorm:"primary_key"`
		Title  string

		Comments []Comment `gorm:"foreignkey:PostID;association_foreignkey:PostID"`
	}

	ctx := context.Background()
	tc := prefetch.NewContext(db)

	q := tc.Query(&Post{})
	_, err := prefetch.ManyScoped(ctx, q, "Comments", func(s prefetch.Set) prefetch.Set {
		return s.Where("spam = ?", false)
	})
	if err != nil {
		fmt.Printf("err = %v\n", err)
	}

	var posts []Post
	if err := q.Find(ctx, &posts); err != nil {
		fmt.Printf("err = %v\n", err)
	}

	for _, p := range posts {
		fmt.Printf("%s has %d comments\n", p.Title, len(p.Comments))
	}
}
