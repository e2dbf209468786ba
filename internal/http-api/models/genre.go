package models

type Genre struct {
	ID   int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"size:256;index;not null"`
	Slug string `json:"slug" gorm:"uniqueIndex;size:256;not null"`
}

func (Genre) TableName() string {
	return "genres"
}
