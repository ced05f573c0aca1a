package store

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Dao struct {
	db *gorm.DB
}

func NewDao(url, scheme, user, passwd string) (*Dao, error) {
	db, err := gorm.Open(mysql.Open(user+":"+passwd+"@tcp("+url+")/"+
		scheme+"?charset=utf8&parseTime=True"), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, err
	}
	return NewDaoWithDB(db)
}

// NewDaoWithDB migrates the event tables on an already opened database.
func NewDaoWithDB(db *gorm.DB) (*Dao, error) {
	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}
	return &Dao{db: db}, nil
}

func (dao *Dao) Save(record interface{}) error {
	return dao.db.Create(record).Error
}

func (dao *Dao) SelectDayClosed(policy string, limit int) ([]*DayClosedRecord, error) {
	records := make([]*DayClosedRecord, 0)
	res := dao.db.Where("policy = ?", policy).Order("day_start_ts desc").Limit(limit).Find(&records)
	return records, res.Error
}

func (dao *Dao) SelectPayoutPages(policy string, dayStartTs int64) ([]*InvestorPayoutPageRecord, error) {
	records := make([]*InvestorPayoutPageRecord, 0)
	res := dao.db.Where("policy = ? AND day_start_ts = ?", policy, dayStartTs).Order("page_start").Find(&records)
	return records, res.Error
}
